package player

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// simulator advances the local position between snapshots on a fixed tick.
// At most one tick job exists at a time.
type simulator struct {
	sched   gocron.Scheduler
	tick    time.Duration
	advance func(gen uint64, step time.Duration)
	logger  *slog.Logger

	mu  sync.Mutex
	job gocron.Job
}

func newSimulator(sched gocron.Scheduler, tick time.Duration, advance func(uint64, time.Duration), logger *slog.Logger) *simulator {
	return &simulator{sched: sched, tick: tick, advance: advance, logger: logger}
}

// start begins ticking for gen, replacing any running job.
func (s *simulator) start(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	job, err := s.sched.NewJob(
		gocron.DurationJob(s.tick),
		gocron.NewTask(s.advance, gen, s.tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("position"),
	)
	if err != nil {
		s.logger.Error("failed to start position simulator", slog.String("error", err.Error()))
		return
	}
	s.job = job
}

func (s *simulator) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *simulator) stopLocked() {
	if s.job == nil {
		return
	}
	if err := s.sched.RemoveJob(s.job.ID()); err != nil {
		s.logger.Debug("remove position job", slog.String("error", err.Error()))
	}
	s.job = nil
}

func (s *simulator) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job != nil
}

// advance is the tick task. It only moves the position while the snapshot
// says playing and the tick belongs to the current generation.
func (p *Player) advance(gen uint64, step time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.status == nil || !p.status.Playing {
		return
	}
	p.position += step.Seconds()
}
