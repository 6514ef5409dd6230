// Package schedule turns cron expressions into periodic producers of
// schedule-triggered and system-maintenance-due events, grounded on the
// dispatcher's own Start/Stop lifecycle: a mutex-guarded cron.Cron that
// the engine starts and stops alongside the dispatcher loop.
package schedule

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/pkg/logger"
)

// EnqueueFunc matches engine.Engine.EnqueueEvent's signature, letting the
// scheduler drive the same producer path an HTTP handler would use.
type EnqueueFunc func(kind event.Kind, payload map[string]any, priority event.Priority) (string, error)

// Job describes one cron-driven event producer: Expr is a standard 5-field
// cron expression, Kind/Priority describe the event to enqueue, and
// Payload (optional) builds the payload fresh on every tick.
type Job struct {
	Name     string
	Expr     string
	Kind     event.Kind
	Priority event.Priority
	Payload  func() map[string]any
}

// Scheduler wraps a robfig/cron/v3 instance, enqueueing events through
// EnqueueFunc on each tick. It never interprets event payloads; a job's
// Payload function is the only place domain knowledge about a job lives.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	enqueue EnqueueFunc
	log     *logger.Logger
	jobs    []Job
	running bool
}

// New creates a Scheduler. log may be nil, in which case ticks are silent
// on success and panic-recovered on failure without a log line.
func New(enqueue EnqueueFunc, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		enqueue: enqueue,
		log:     log,
	}
}

// AddJob registers a cron-triggered producer. Safe to call before or after
// Start; jobs added after Start take effect on the cron instance's next
// scheduling pass.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cron.AddFunc(job.Expr, s.tick(job)); err != nil {
		return err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// tick returns the cron callback for job, isolated with its own panic
// recovery so one misbehaving job's payload builder cannot take down the
// cron runner's goroutine (robfig/cron runs each entry's Job.Run on its own
// goroutine already, but a panic there would otherwise be unrecoverable).
func (s *Scheduler) tick(job Job) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil && s.log != nil {
				s.log.WithField("job", job.Name).WithField("panic", r).
					Error("schedule job panicked")
			}
		}()

		var payload map[string]any
		if job.Payload != nil {
			payload = job.Payload()
		} else {
			payload = map[string]any{}
		}
		payload["job"] = job.Name

		if _, err := s.enqueue(job.Kind, payload, job.Priority); err != nil && s.log != nil {
			s.log.WithField("job", job.Name).WithField("error", err).
				Warn("schedule job failed to enqueue event")
		}
	}
}

// Start begins running registered jobs on their cron schedules. No-op if
// already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop halts the cron runner, waiting for any in-flight tick to finish.
// No-op if not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// Jobs returns the registered jobs in registration order, for health
// reporting and tests.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// DefaultJobs returns the standard maintenance schedule the engine wires
// up out of the box: an idle-hours maintenance sweep and a periodic
// schedule-triggered heartbeat workflows can key off of.
func DefaultJobs() []Job {
	return []Job{
		{
			Name:     "maintenance-sweep",
			Expr:     "0 3 * * *",
			Kind:     event.KindSystemMaintenanceDue,
			Priority: event.PriorityLow,
		},
		{
			Name:     "hourly-heartbeat",
			Expr:     "0 * * * *",
			Kind:     event.KindScheduleTriggered,
			Priority: event.PriorityNormal,
		},
	}
}
