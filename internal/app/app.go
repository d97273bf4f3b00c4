package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/five82/webhelper/internal/config"
	"github.com/five82/webhelper/internal/events"
	"github.com/five82/webhelper/internal/locator"
	"github.com/five82/webhelper/internal/player"
	"github.com/five82/webhelper/internal/process"
	"github.com/five82/webhelper/internal/state"
	"github.com/five82/webhelper/internal/ui"
	"github.com/five82/webhelper/internal/webhelper"
)

// Options configure the application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/webhelper/prefs.toml
	Headless   bool   // log notifications instead of starting the TUI
}

// engine is the wired object graph for one run.
type engine struct {
	player      *player.Player
	store       *state.Store
	broadcaster *events.Broadcaster
}

// Run boots the client until ctx is cancelled, the user quits the TUI, or
// the engine stops on a fatal error.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, opts.Headless)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	eng, err := build(cfg, logger, opts.Headless)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- eng.player.Run(ctx) }()

	if bind := cfg.SSE.Bind; bind != "" {
		go func() {
			if err := eng.broadcaster.Serve(ctx, bind); err != nil {
				logger.Error("event stream stopped", slog.String("bind", bind), slog.String("error", err.Error()))
			}
		}()
	}

	if opts.Headless {
		return engineResult(<-runErr)
	}

	prefs := config.LoadPrefs(opts.PrefsPath)
	uiErr := ui.Run(ui.Options{
		Context:    ctx,
		Controller: eng.player,
		Store:      eng.store,
		Config:     &cfg,
		PollTick:   cfg.Intervals.PositionTick,
		ThemeName:  prefs.Theme,
		PrefsPath:  opts.PrefsPath,
	})
	cancel()
	engineErr := engineResult(<-runErr)
	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	return engineErr
}

func engineResult(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("player stopped: %w", err)
}

// build wires the engine from cfg.
func build(cfg config.Config, logger *slog.Logger, headless bool) (*engine, error) {
	comp := cfg.Companion

	client, err := webhelper.NewClient(webhelper.Options{
		Host:      comp.Host,
		Origin:    comp.Origin,
		UserAgent: comp.UserAgent,
		TokenURL:  comp.TokenURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init companion client: %w", err)
	}

	ranges := locator.Ranges{
		Secure:   locator.PortRange{First: comp.SecurePorts.First, Last: comp.SecurePorts.Last},
		Insecure: locator.PortRange{First: comp.InsecurePorts.First, Last: comp.InsecurePorts.Last},
	}
	if err := ranges.Secure.Validate(); err != nil {
		return nil, fmt.Errorf("secure ports: %w", err)
	}
	if err := ranges.Insecure.Validate(); err != nil {
		return nil, fmt.Errorf("insecure ports: %w", err)
	}
	loc := locator.New(client, locator.Options{
		Host:    client.Host(),
		Ranges:  ranges,
		Timeout: cfg.Intervals.RetryConnection,
		Logger:  logger.With(slog.String("component", "locator")),
	})

	helperPath := comp.HelperPath
	if helperPath == "" {
		helperPath = process.DefaultHelperPath()
	}
	monitor := process.NewMonitor(process.Options{
		HelperPath:       helperPath,
		HelperAutoStarts: process.HelperAutoStarts(),
		Logger:           logger.With(slog.String("component", "process")),
	})

	noTrack, err := player.ParseNoTrackPolicy(cfg.Behavior.NoTrack)
	if err != nil {
		return nil, err
	}

	store := state.NewStore(state.DefaultHistory)
	broadcaster := events.NewBroadcaster(logger.With(slog.String("component", "events")))
	listeners := []player.Listener{store}
	if cfg.SSE.Bind != "" {
		listeners = append(listeners, broadcaster)
	}
	if headless {
		listeners = append(listeners, logEvents(logger))
	}

	p, err := player.New(client, loc, monitor, player.Options{
		ReturnAfter:     comp.ReturnAfter,
		PositionTick:    cfg.Intervals.PositionTick,
		CheckRunning:    cfg.Intervals.CheckRunning,
		CheckShutdown:   cfg.Intervals.CheckShutdown,
		ShutdownRetries: cfg.Intervals.ShutdownRetries,
		StartupGrace:    cfg.Intervals.StartupGrace,
		DelayAfterError: cfg.Intervals.DelayAfterError,
		WaitForPlayer:   cfg.Behavior.WaitForPlayer,
		NoTrack:         noTrack,
		RestartErrors:   comp.RestartErrors,
		Listeners:       listeners,
		Logger:          logger.With(slog.String("component", "player")),
	})
	if err != nil {
		return nil, fmt.Errorf("init player: %w", err)
	}
	return &engine{player: p, store: store, broadcaster: broadcaster}, nil
}

// newLogger builds the process logger. The TUI owns the terminal, so in
// that mode logs go to the configured file.
func newLogger(cfg config.Config, headless bool) (*slog.Logger, func(), error) {
	handlerOpts := &slog.HandlerOptions{Level: cfg.GetLogLevel()}
	if headless {
		return slog.New(slog.NewTextHandler(os.Stderr, handlerOpts)), func() {}, nil
	}

	path, err := cfg.LogFilePath()
	if errors.Is(err, config.ErrNoLogFile) {
		return slog.New(slog.NewTextHandler(io.Discard, handlerOpts)), func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(file, handlerOpts)), func() { _ = file.Close() }, nil
}

// logEvents logs every notification; status snapshots only at debug.
func logEvents(logger *slog.Logger) player.ListenerFunc {
	return func(ev player.Event) {
		attrs := []any{
			slog.String("kind", string(ev.Kind)),
			slog.Uint64("generation", ev.Generation),
		}
		if ev.Session != "" {
			attrs = append(attrs, slog.String("session", ev.Session))
		}
		switch ev.Kind {
		case player.EventStatusWillChange:
			if ev.Status != nil {
				attrs = append(attrs,
					slog.Bool("playing", ev.Status.Playing),
					slog.Float64("position", ev.Status.PlayingPosition),
					slog.String("track", ev.Status.TrackURI()),
					slog.String("revision", ev.Status.Revision()),
				)
			}
			logger.Debug("status", attrs...)
			return
		case player.EventTrackWillChange:
			attrs = append(attrs,
				slog.String("track", ev.Track.URI()),
				slog.String("title", ev.Track.Title()),
				slog.String("artist", ev.Track.Artist()),
			)
		case player.EventSeek:
			attrs = append(attrs, slog.Float64("position", ev.Position))
		case player.EventError:
			if ev.Err != nil {
				attrs = append(attrs,
					slog.String("error", ev.Err.Error()),
					slog.String("error_kind", webhelper.Kind(ev.Err)),
				)
			}
			logger.Warn("notification", attrs...)
			return
		}
		logger.Info("notification", attrs...)
	}
}
