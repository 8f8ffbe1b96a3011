package plugins

import (
	"fmt"
	"time"

	"github.com/containerd/errdefs"
	"github.com/robfig/cron/v3"

	"pkt.systems/pslog"
)

// Scheduler fires timed plugin callbacks. Callbacks never run on the cron
// goroutine; they are handed to post, which queues them on the client's
// event loop.
type Scheduler struct {
	cron *cron.Cron
	post func(func())
	log  pslog.Logger
}

// NewScheduler constructs a stopped scheduler.
func NewScheduler(post func(func()), logger pslog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), post: post, log: logger}
}

// Every schedules fn at a fixed interval of at least one second and returns
// a cancel function.
func (s *Scheduler) Every(interval time.Duration, fn func()) (func(), error) {
	if interval < time.Second || fn == nil {
		return nil, fmt.Errorf("%w: timed callbacks need a callback and an interval of at least 1s", errdefs.ErrInvalidArgument)
	}
	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if s.post != nil {
			s.post(fn)
			return
		}
		fn()
	}))
	if s.log != nil {
		s.log.Debug("plugin timer scheduled", "interval", interval.String(), "id", int(id))
	}
	return func() { s.cron.Remove(id) }, nil
}

// Len returns the number of scheduled callbacks.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Start begins firing callbacks.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
