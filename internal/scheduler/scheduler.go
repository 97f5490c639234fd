// Package scheduler fires pipeline runs on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron *cron.Cron
}

// Start schedules trigger on spec (standard cron or descriptors like
// "@every 6h"). A trigger returning false means a run was already active;
// that tick is skipped, not queued.
func Start(ctx context.Context, spec string, trigger func(context.Context) bool) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if !trigger(ctx) {
			log.Printf("[scheduler] run already in progress, skipping tick")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	c.Start()
	log.Printf("[scheduler] started with spec %q", spec)
	return &Scheduler{cron: c}, nil
}

// Stop ends scheduling and waits for an in-flight tick callback.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
