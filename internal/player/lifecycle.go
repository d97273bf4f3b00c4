package player

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/webhelper/internal/process"
)

// initialize makes sure the player and companion are up and resolves the
// companion's port.
func (p *Player) initialize(ctx context.Context) (Phase, error) {
	if p.opts.WaitForPlayer {
		waited, err := p.waitForPlayer(ctx)
		if err != nil {
			return PhaseFatal, err
		}
		p.setPlayerRunning(true)
		if waited && p.opts.StartupGrace > 0 {
			p.logger.Info("player started, allowing startup grace",
				slog.Duration("grace", p.opts.StartupGrace))
			if err := sleep(ctx, p.opts.StartupGrace); err != nil {
				return PhaseFatal, err
			}
		}
	} else {
		running, err := p.monitor.IsRunning(ctx, process.TargetPlayer)
		if err != nil {
			p.logger.Debug("player check failed", slog.String("error", err.Error()))
			running = true
		}
		p.setPlayerRunning(running)
	}

	if err := p.monitor.EnsureHelperStarted(ctx); err != nil {
		if ctx.Err() != nil {
			return PhaseFatal, ctx.Err()
		}
		p.emitError(err)
		return PhaseFatal, err
	}

	inst, err := p.locator.Locate(ctx)
	if err != nil {
		return PhaseFatal, err
	}
	p.mu.Lock()
	p.instance = inst
	announce := !p.opened
	p.opened = true
	p.mu.Unlock()

	// open pairs with close; a silent restart keeps the player open.
	if announce {
		p.emit(Event{Kind: EventOpen})
	}
	return PhaseAuthenticating, nil
}

// waitForPlayer blocks until the player process is observed. waited is true
// when it was not running on the first check.
func (p *Player) waitForPlayer(ctx context.Context) (waited bool, err error) {
	for {
		running, err := p.monitor.IsRunning(ctx, process.TargetPlayer)
		if err != nil {
			p.logger.Debug("player check failed", slog.String("error", err.Error()))
		}
		if running {
			return waited, nil
		}
		if !waited {
			p.logger.Info("waiting for player to start")
		}
		waited = true
		if err := sleep(ctx, p.opts.CheckRunning); err != nil {
			return waited, err
		}
	}
}

// waitForShutdown follows the player going away and hands control back to
// discovery once it is gone, or once the retry bound is exceeded.
func (p *Player) waitForShutdown(ctx context.Context) (Phase, error) {
	p.mu.Lock()
	raised := p.closingRaised
	p.closingRaised = true
	p.mu.Unlock()
	if !raised {
		p.emit(Event{Kind: EventClosing})
	}

	for attempt := 0; attempt <= p.opts.ShutdownRetries; attempt++ {
		running, err := p.monitor.IsRunning(ctx, process.TargetPlayer)
		switch {
		case err != nil:
			p.logger.Debug("shutdown check failed", slog.String("error", err.Error()))
		case !running:
			p.mu.Lock()
			p.playerRunning = false
			p.opened = false
			p.mu.Unlock()
			p.logger.Info("player stopped, waiting for it to return")
			p.emit(Event{Kind: EventClose})
			return PhaseReconnecting, nil
		}
		if attempt == p.opts.ShutdownRetries {
			break
		}
		if err := sleep(ctx, p.opts.CheckShutdown); err != nil {
			return PhaseFatal, err
		}
	}
	p.logger.Warn("player still running after shutdown checks, reconnecting",
		slog.Int("retries", p.opts.ShutdownRetries))
	return PhaseReconnecting, nil
}

// invalidate drops the session, snapshot, position and simulator together
// and starts a new generation.
func (p *Player) invalidate() {
	p.sim.stop()
	p.mu.Lock()
	p.gen++
	p.session = nil
	p.status = nil
	p.position = 0
	p.closingRaised = false
	p.mu.Unlock()
}

// requestRestart asks Run to restart the chain if gen is still current.
// A newer request replaces a pending one.
func (p *Player) requestRestart(gen uint64) {
	for {
		select {
		case p.restartCh <- gen:
			return
		default:
		}
		select {
		case <-p.restartCh:
		default:
		}
	}
}

// pause waits for d. restart is true when a restart request for gen arrived
// in the meantime; stale requests are discarded.
func (p *Player) pause(ctx context.Context, gen uint64, d time.Duration) (restart bool, err error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		case reqGen := <-p.restartCh:
			if reqGen == gen {
				return true, nil
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
