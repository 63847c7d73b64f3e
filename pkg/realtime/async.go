package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/jobs"
)

// Publisher is the publishing side used by services.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// AsyncPublisher hands events to a worker queue so request handlers never
// wait on Redis; failed publishes are retried by the queue.
type AsyncPublisher struct {
	queue *jobs.Queue[Event]
}

// NewAsyncPublisher wraps target with a retrying job queue. Start must be
// called before publishing.
func NewAsyncPublisher(target Publisher, cfg jobs.QueueConfig) *AsyncPublisher {
	queue := jobs.NewQueue[Event]("realtime-publish", func(ctx context.Context, job jobs.Job[Event]) error {
		return target.Publish(ctx, job.Payload)
	}, cfg)
	return &AsyncPublisher{queue: queue}
}

// Start launches the worker pool.
func (p *AsyncPublisher) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop drains workers.
func (p *AsyncPublisher) Stop() {
	p.queue.Stop()
}

// Publish enqueues evt.
func (p *AsyncPublisher) Publish(_ context.Context, evt Event) error {
	return p.queue.Enqueue(jobs.Job[Event]{ID: uuid.NewString(), Type: evt.Name, Payload: evt})
}
