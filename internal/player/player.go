package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/five82/webhelper/internal/process"
	"github.com/five82/webhelper/internal/webhelper"
)

// Locator resolves the companion's current port.
type Locator interface {
	Locate(ctx context.Context) (webhelper.Instance, error)
}

// Monitor answers liveness questions and launches the companion.
type Monitor interface {
	IsRunning(ctx context.Context, target process.Target) (bool, error)
	EnsureHelperStarted(ctx context.Context) error
}

// NoTrackPolicy decides what a snapshot without a track means.
type NoTrackPolicy string

const (
	// NoTrackIgnore treats a missing track as a normal transient state and
	// reconciles the snapshot like any other.
	NoTrackIgnore NoTrackPolicy = "ignore"
	// NoTrackError raises webhelper.ErrNoUser and keeps polling.
	NoTrackError NoTrackPolicy = "error"
	// NoTrackFatal raises webhelper.ErrNoUser and stops the engine.
	NoTrackFatal NoTrackPolicy = "fatal"
)

// ParseNoTrackPolicy maps a config value to a policy.
func ParseNoTrackPolicy(value string) (NoTrackPolicy, error) {
	switch NoTrackPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", NoTrackIgnore:
		return NoTrackIgnore, nil
	case NoTrackError:
		return NoTrackError, nil
	case NoTrackFatal:
		return NoTrackFatal, nil
	default:
		return "", fmt.Errorf("unknown no_track policy %q", value)
	}
}

// Options tunes the engine. Zero values take the defaults below.
type Options struct {
	ReturnAfter     time.Duration // long-poll hold, 60s
	InitialHold     time.Duration // first fetch after auth, 1s
	PositionTick    time.Duration // simulator tick, 250ms
	CheckRunning    time.Duration // player wait poll, 5s
	CheckShutdown   time.Duration // shutdown poll, 2s
	ShutdownRetries int           // 15
	StartupGrace    time.Duration // after the player appears, 3s
	DelayAfterError time.Duration // 5s

	WaitForPlayer bool
	NoTrack       NoTrackPolicy
	RestartErrors []string

	Listeners []Listener
	Logger    *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ReturnAfter <= 0 {
		o.ReturnAfter = 60 * time.Second
	}
	if o.InitialHold <= 0 {
		o.InitialHold = time.Second
	}
	if o.PositionTick <= 0 {
		o.PositionTick = 250 * time.Millisecond
	}
	if o.CheckRunning <= 0 {
		o.CheckRunning = 5 * time.Second
	}
	if o.CheckShutdown <= 0 {
		o.CheckShutdown = 2 * time.Second
	}
	if o.ShutdownRetries <= 0 {
		o.ShutdownRetries = 15
	}
	if o.StartupGrace < 0 {
		o.StartupGrace = 0
	}
	if o.DelayAfterError <= 0 {
		o.DelayAfterError = 5 * time.Second
	}
	if o.NoTrack == "" {
		o.NoTrack = NoTrackIgnore
	}
	if len(o.RestartErrors) == 0 {
		o.RestartErrors = webhelper.DefaultRestartMessages
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

var (
	// ErrNotConnected is returned by commands issued without a live session.
	ErrNotConnected = errors.New("not connected to companion")
	// ErrNoTrack is returned by SeekTo when nothing is loaded.
	ErrNoTrack = errors.New("no track loaded")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("player already running")
)

// PlaybackState is a point-in-time copy of what the engine knows.
type PlaybackState struct {
	Status    *webhelper.Status
	Position  float64
	Phase     Phase
	Connected bool
	SessionID string
	Instance  webhelper.Instance
}

// Player keeps a session with the companion alive and turns successive
// snapshots into notifications.
type Player struct {
	api     webhelper.API
	locator Locator
	monitor Monitor
	opts    Options
	logger  *slog.Logger
	sched   gocron.Scheduler
	sim     *simulator

	listenersMu sync.RWMutex
	listeners   []Listener

	// emitMu serializes notification delivery. It is taken before mu when
	// both are needed.
	emitMu sync.Mutex

	mu            sync.Mutex
	phase         Phase
	gen           uint64
	instance      webhelper.Instance
	session       *webhelper.Session
	status        *webhelper.Status
	position      float64
	playerRunning bool
	opened        bool // open raised and not yet followed by close
	closingRaised bool

	restartCh chan uint64
	started   atomic.Bool
}

// New builds a Player. Run must be called to start it.
func New(api webhelper.API, locator Locator, monitor Monitor, opts Options) (*Player, error) {
	if api == nil || locator == nil || monitor == nil {
		return nil, errors.New("player requires api, locator and monitor")
	}
	opts = opts.withDefaults()
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	p := &Player{
		api:           api,
		locator:       locator,
		monitor:       monitor,
		opts:          opts,
		logger:        opts.Logger,
		sched:         sched,
		listeners:     append([]Listener(nil), opts.Listeners...),
		playerRunning: true,
		restartCh:     make(chan uint64, 1),
	}
	p.sim = newSimulator(sched, opts.PositionTick, p.advance, opts.Logger)
	return p, nil
}

// Subscribe adds a listener for all future notifications.
func (p *Player) Subscribe(l Listener) {
	if l == nil {
		return
	}
	p.listenersMu.Lock()
	p.listeners = append(p.listeners, l)
	p.listenersMu.Unlock()
}

// Run drives the lifecycle until ctx is cancelled or a fatal condition
// occurs. It blocks; embed it in its own goroutine. Run may be called once.
func (p *Player) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	p.sched.Start()
	defer func() {
		p.invalidate()
		if err := p.sched.Shutdown(); err != nil {
			p.logger.Debug("scheduler shutdown", slog.String("error", err.Error()))
		}
	}()

	phase := PhaseInitializing
	for {
		p.setPhase(phase)
		var (
			next Phase
			err  error
		)
		switch phase {
		case PhaseInitializing:
			next, err = p.initialize(ctx)
		case PhaseAuthenticating:
			next, err = p.authenticate(ctx)
		case PhaseListening:
			next, err = p.listen(ctx)
		case PhaseClosing:
			next, err = p.waitForShutdown(ctx)
		case PhaseReconnecting:
			p.invalidate()
			next = PhaseInitializing
		default:
			return fmt.Errorf("unexpected phase %s", phase)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			p.setPhase(PhaseFatal)
			p.logger.Error("player stopped",
				slog.String("error", err.Error()),
				slog.String("kind", webhelper.Kind(err)),
			)
			return err
		}
		if next != phase {
			p.logger.Debug("phase change",
				slog.String("from", phase.String()),
				slog.String("to", next.String()),
			)
		}
		phase = next
	}
}

// Phase returns the active lifecycle phase.
func (p *Player) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Playback returns a copy of the reconstructed playback state.
func (p *Player) Playback() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := PlaybackState{
		Status:    p.status.Clone(),
		Position:  p.position,
		Phase:     p.phase,
		Connected: p.session != nil,
		Instance:  p.instance,
	}
	if p.session != nil {
		st.SessionID = p.session.ID
	}
	return st
}

func (p *Player) setPhase(phase Phase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

func (p *Player) generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

func (p *Player) setPlayerRunning(running bool) {
	p.mu.Lock()
	p.playerRunning = running
	p.mu.Unlock()
}

func (p *Player) isPlayerRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playerRunning
}

// emit delivers one notification.
func (p *Player) emit(ev Event) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	p.dispatch(ev)
}

// dispatch requires emitMu.
func (p *Player) dispatch(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	p.mu.Lock()
	if ev.Generation == 0 {
		ev.Generation = p.gen
	}
	if ev.Session == "" && p.session != nil && p.session.Generation == ev.Generation {
		ev.Session = p.session.ID
	}
	p.mu.Unlock()
	p.listenersMu.RLock()
	listeners := p.listeners
	p.listenersMu.RUnlock()
	for _, l := range listeners {
		l.HandleEvent(ev)
	}
}

func (p *Player) emitError(err error) {
	p.logger.Warn("player error",
		slog.String("error", err.Error()),
		slog.String("kind", webhelper.Kind(err)),
	)
	p.emit(Event{Kind: EventError, Err: err})
}
