// Package notifytest records enqueued SMS jobs for assertions.
package notifytest

import (
	"context"
	"sync"

	notifService "majibill_backend/internals/features/notifications/service"
)

type Capture struct {
	mu   sync.Mutex
	jobs []notifService.Job
	Err  error
}

func (c *Capture) Enqueue(_ context.Context, job notifService.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *Capture) Jobs() []notifService.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notifService.Job(nil), c.jobs...)
}

func (c *Capture) OfKind(kind notifService.Kind) []notifService.Job {
	var out []notifService.Job
	for _, j := range c.Jobs() {
		if j.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}
