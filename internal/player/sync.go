package player

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/five82/webhelper/internal/webhelper"
)

type pollResult struct {
	gen    uint64
	status *webhelper.Status
	err    error
}

// listen keeps exactly one long-poll in flight and processes each response
// as it arrives.
func (p *Player) listen(ctx context.Context) (Phase, error) {
	sess, ok := p.currentSession()
	if !ok {
		return PhaseReconnecting, nil
	}
	gen := sess.Generation

	for {
		res, restart, err := p.poll(ctx, sess)
		if err != nil {
			return PhaseFatal, err
		}
		if restart {
			p.logger.Info("restart requested, dropping session", slog.Uint64("generation", gen))
			return PhaseReconnecting, nil
		}
		if res.gen != p.generation() {
			p.logger.Debug("dropping stale poll result", slog.Uint64("generation", res.gen))
			return PhaseReconnecting, nil
		}
		next, err := p.handle(ctx, gen, res.status, res.err)
		if err != nil || next != PhaseListening {
			return next, err
		}
	}
}

// poll issues one long-poll and waits for it, a restart request for the
// session's generation, or cancellation. An abandoned poll is cancelled and
// its result lands in a buffer nobody reads.
func (p *Player) poll(ctx context.Context, sess webhelper.Session) (pollResult, bool, error) {
	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan pollResult, 1)
	go func() {
		st, err := p.api.FetchStatus(pollCtx, sess, webhelper.StatusRequest{
			ReturnAfter: p.opts.ReturnAfter,
			KeepAlive:   true,
		})
		results <- pollResult{gen: sess.Generation, status: st, err: err}
	}()

	for {
		select {
		case <-ctx.Done():
			return pollResult{}, false, ctx.Err()
		case reqGen := <-p.restartCh:
			if reqGen == sess.Generation {
				return pollResult{}, true, nil
			}
		case res := <-results:
			return res, false, nil
		}
	}
}

// handle classifies one status response. PhaseListening means keep polling.
func (p *Player) handle(ctx context.Context, gen uint64, st *webhelper.Status, err error) (Phase, error) {
	if err != nil {
		if ctx.Err() != nil {
			return PhaseFatal, ctx.Err()
		}
		return p.handleFailure(ctx, gen, err)
	}
	if st.Error != nil {
		return p.handleFailure(ctx, gen, st.Error.Err())
	}

	if st.IsOffline() {
		p.mu.Lock()
		p.closingRaised = true
		p.mu.Unlock()
		p.logger.Info("companion reports player going offline")
		p.emit(Event{Kind: EventClosing})
		return PhaseClosing, nil
	}

	if st.Track == nil && p.opts.NoTrack != NoTrackIgnore {
		p.emitError(webhelper.ErrNoUser)
		if p.opts.NoTrack == NoTrackFatal {
			return PhaseFatal, webhelper.ErrNoUser
		}
		return p.backoff(ctx, gen)
	}

	p.reconcile(gen, st)
	return PhaseListening, nil
}

func (p *Player) handleFailure(ctx context.Context, gen uint64, err error) (Phase, error) {
	var (
		malformed *webhelper.MalformedResponseError
		apiErr    *webhelper.APIError
	)
	switch {
	case errors.As(err, &malformed):
		p.emitError(err)
		return PhaseFatal, err
	case webhelper.IsRestartable(err, p.opts.RestartErrors):
		p.logger.Info("session tokens rejected, restarting",
			slog.String("reason", err.Error()),
			slog.Uint64("generation", gen),
		)
		return PhaseReconnecting, nil
	case errors.As(err, &apiErr):
		p.emitError(err)
		return p.backoff(ctx, gen)
	default:
		running := p.isPlayerRunning()
		p.logger.Warn("status request failed",
			slog.String("error", err.Error()),
			slog.Bool("player_running", running),
		)
		if running {
			return PhaseClosing, nil
		}
		return PhaseReconnecting, nil
	}
}

// backoff waits out delay_after_error before polling resumes.
func (p *Player) backoff(ctx context.Context, gen uint64) (Phase, error) {
	restart, err := p.pause(ctx, gen, p.opts.DelayAfterError)
	if err != nil {
		return PhaseFatal, err
	}
	if restart {
		return PhaseReconnecting, nil
	}
	return PhaseListening, nil
}

// reconcile replaces the cached snapshot with next and emits whatever the
// change implies. Comparison inputs are captured and replaced under mu.
func (p *Player) reconcile(gen uint64, next *webhelper.Status) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	prev := p.status
	local := p.position
	p.status = next
	p.position = next.PlayingPosition
	p.mu.Unlock()

	var tr transition
	if prev == nil {
		tr = initialTransition(next)
	} else {
		tr = diff(prev, next, local, p.opts.PositionTick)
	}

	for _, ev := range tr.events {
		ev.Generation = gen
		p.dispatch(ev)
	}
	switch {
	case tr.startSim:
		p.sim.start(gen)
	case tr.stopSim:
		p.sim.stop()
	}
}

type transition struct {
	events   []Event
	startSim bool
	stopSim  bool
}

// initialTransition describes the first snapshot of a session.
func initialTransition(next *webhelper.Status) transition {
	tr := transition{events: []Event{
		{Kind: EventReady},
		{Kind: EventStatusWillChange, Status: next.Clone()},
	}}
	if next.Playing {
		tr.events = append(tr.events,
			Event{Kind: EventPlay},
			Event{Kind: EventTrackWillChange, Track: next.Clone().Track},
		)
		tr.startSim = true
	}
	return tr
}

// diff derives the notifications between two consecutive snapshots. local is
// the simulator's position at the moment next arrived.
func diff(prev, next *webhelper.Status, local float64, tick time.Duration) transition {
	tr := transition{events: []Event{{Kind: EventStatusWillChange, Status: next.Clone()}}}

	if oldURI, newURI := prev.TrackURI(), next.TrackURI(); oldURI != "" && newURI != "" && oldURI != newURI {
		tr.events = append(tr.events, Event{Kind: EventTrackWillChange, Track: next.Clone().Track})
	}

	switch {
	case !prev.Playing && next.Playing:
		tr.events = append(tr.events, Event{Kind: EventPlay})
		tr.startSim = true
	case prev.Playing && !next.Playing:
		if reachedEnd(next, local) {
			tr.events = append(tr.events, Event{Kind: EventEnd})
		} else {
			tr.events = append(tr.events, Event{Kind: EventPause})
		}
		tr.stopSim = true
	}

	if math.Abs(local-next.PlayingPosition) > 2*tick.Seconds() {
		tr.events = append(tr.events, Event{Kind: EventSeek, Position: next.PlayingPosition})
	}
	return tr
}

// reachedEnd reports whether playback stopped because the track finished.
// A stop that also drops the track is an end: the player reports no track
// once it is shutting down.
func reachedEnd(next *webhelper.Status, local float64) bool {
	if next.Track == nil {
		return true
	}
	return math.Abs(local-next.Track.Length) <= 1
}
