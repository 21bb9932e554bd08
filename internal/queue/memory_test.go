package queue_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/queue"
)

func task(id string) queue.Task {
	return queue.Task{Delivery: model.DeliveryKey{Provider: model.ProviderGitHub, DeliveryID: id}}
}

var _ = Describe("MemoryQueue", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("delivers tasks in order and stamps the enqueue time", func() {
		q := queue.NewMemoryQueue(2)
		Expect(q.Enqueue(ctx, task("a"))).To(Succeed())
		Expect(q.Enqueue(ctx, task("b"))).To(Succeed())
		Expect(q.Depth()).To(Equal(2))

		first := <-q.Tasks()
		Expect(first.Delivery.DeliveryID).To(Equal("a"))
		Expect(first.EnqueuedAt).NotTo(BeZero())
		Expect((<-q.Tasks()).Delivery.DeliveryID).To(Equal("b"))
	})

	It("rejects tasks when the buffer is full", func() {
		q := queue.NewMemoryQueue(1)
		Expect(q.Enqueue(ctx, task("a"))).To(Succeed())
		Expect(q.Enqueue(ctx, task("b"))).To(MatchError(queue.ErrQueueFull))
	})

	It("drains buffered tasks after close and rejects new ones", func() {
		q := queue.NewMemoryQueue(2)
		Expect(q.Enqueue(ctx, task("a"))).To(Succeed())
		Expect(q.Close()).To(Succeed())
		Expect(q.Close()).To(Succeed())

		Expect(q.Enqueue(ctx, task("b"))).To(MatchError(queue.ErrQueueClosed))

		t, ok := <-q.Tasks()
		Expect(ok).To(BeTrue())
		Expect(t.Delivery.DeliveryID).To(Equal("a"))
		_, ok = <-q.Tasks()
		Expect(ok).To(BeFalse())
	})
})
