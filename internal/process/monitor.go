package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNotInstalled means the companion executable could not be launched.
	ErrNotInstalled = errors.New("companion executable not installed")
	// ErrHelperNotStarted means the companion was launched but never showed up.
	ErrHelperNotStarted = errors.New("cannot start companion")
)

const (
	defaultRecheckAttempts = 5
	defaultRecheckInterval = time.Second
)

// Options configures a Monitor.
type Options struct {
	Player  Lister
	Helper  Lister
	Spawner Spawner

	HelperPath       string
	HelperAutoStarts bool

	// RecheckAttempts bounds how often the helper is looked for after a spawn.
	RecheckAttempts int
	RecheckInterval time.Duration

	Logger *slog.Logger
}

// Monitor answers liveness questions about the player and its companion.
type Monitor struct {
	player           Lister
	helper           Lister
	spawner          Spawner
	helperPath       string
	helperAutoStarts bool
	recheckAttempts  int
	recheckInterval  time.Duration
	logger           *slog.Logger
}

// NewMonitor builds a Monitor, filling unset collaborators with the
// process-table implementations.
func NewMonitor(opts Options) *Monitor {
	m := &Monitor{
		player:           opts.Player,
		helper:           opts.Helper,
		spawner:          opts.Spawner,
		helperPath:       opts.HelperPath,
		helperAutoStarts: opts.HelperAutoStarts,
		recheckAttempts:  opts.RecheckAttempts,
		recheckInterval:  opts.RecheckInterval,
		logger:           opts.Logger,
	}
	if m.player == nil {
		m.player = AnyOf(NewProcessLister(PlayerNames...), NewMPRISLister("spotify"))
	}
	if m.helper == nil {
		m.helper = NewProcessLister(HelperNames...)
	}
	if m.spawner == nil {
		m.spawner = DetachedSpawner{}
	}
	if m.recheckAttempts <= 0 {
		m.recheckAttempts = defaultRecheckAttempts
	}
	if m.recheckInterval <= 0 {
		m.recheckInterval = defaultRecheckInterval
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// IsRunning reports whether target is alive right now.
func (m *Monitor) IsRunning(ctx context.Context, target Target) (bool, error) {
	switch target {
	case TargetPlayer:
		return m.player.Running(ctx)
	case TargetHelper:
		if m.helperAutoStarts {
			return true, nil
		}
		return m.helper.Running(ctx)
	default:
		return false, fmt.Errorf("unknown target %s", target)
	}
}

// EnsureHelperStarted launches the companion if it is not running and waits
// a bounded time for it to appear.
func (m *Monitor) EnsureHelperStarted(ctx context.Context) error {
	running, err := m.IsRunning(ctx, TargetHelper)
	if err != nil {
		m.logger.Warn("helper check failed", slog.String("error", err.Error()))
	}
	if running {
		return nil
	}
	if m.helperPath == "" {
		return fmt.Errorf("%w: no helper path configured", ErrNotInstalled)
	}

	m.logger.Info("starting helper", slog.String("path", m.helperPath))
	if err := m.spawner.Spawn(m.helperPath); err != nil {
		return fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}

	for attempt := 1; attempt <= m.recheckAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.recheckInterval):
		}
		running, err := m.IsRunning(ctx, TargetHelper)
		if err != nil {
			m.logger.Debug("helper recheck failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}
		if running {
			return nil
		}
	}
	return ErrHelperNotStarted
}
