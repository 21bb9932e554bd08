package retention

import "time"

func (s *Sweeper) SetClock(now func() time.Time) {
	s.now = now
}
