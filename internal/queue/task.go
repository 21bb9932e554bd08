package queue

import (
	"net/http"
	"time"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

// Task is one admitted delivery waiting to be normalized and dispatched.
// Body holds the exact bytes that were verified.
type Task struct {
	Delivery   model.DeliveryKey
	Headers    http.Header
	Body       []byte
	TraceID    *string
	EnqueuedAt time.Time
}
