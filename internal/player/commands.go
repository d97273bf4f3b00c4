package player

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/five82/webhelper/internal/webhelper"
)

// Play starts uri. An empty uri, or the uri already loaded, toggles between
// pause and resume instead of restarting the track.
func (p *Player) Play(ctx context.Context, uri string) error {
	sess, ok := p.currentSession()
	if !ok {
		return ErrNotConnected
	}
	p.mu.Lock()
	current := p.status.TrackURI()
	playing := p.status != nil && p.status.Playing
	p.mu.Unlock()

	if uri == "" || uri == current {
		return p.Pause(ctx, !playing)
	}
	_, err := p.api.Play(ctx, sess, uri)
	return p.commandResult(sess, "play", err)
}

// Pause pauses playback, or resumes it when resume is true.
func (p *Player) Pause(ctx context.Context, resume bool) error {
	sess, ok := p.currentSession()
	if !ok {
		return ErrNotConnected
	}
	_, err := p.api.Pause(ctx, sess, !resume)
	return p.commandResult(sess, "pause", err)
}

// SeekTo moves the local position to seconds, notifies listeners right away
// and asks the companion to play the current track from there.
func (p *Player) SeekTo(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		seconds = 0
	}

	p.emitMu.Lock()
	p.mu.Lock()
	if p.session == nil {
		p.mu.Unlock()
		p.emitMu.Unlock()
		return ErrNotConnected
	}
	uri := p.status.TrackURI()
	if uri == "" {
		p.mu.Unlock()
		p.emitMu.Unlock()
		return ErrNoTrack
	}
	sess := *p.session
	p.position = seconds
	p.mu.Unlock()
	p.dispatch(Event{Kind: EventSeek, Position: seconds, Generation: sess.Generation, Session: sess.ID})
	p.emitMu.Unlock()

	_, err := p.api.Play(ctx, sess, webhelper.SeekURI(uri, seconds))
	return p.commandResult(sess, "seek", err)
}

// commandResult turns a rejected-token response into a restart request for
// the session that issued the command.
func (p *Player) commandResult(sess webhelper.Session, op string, err error) error {
	if err == nil {
		return nil
	}
	if webhelper.IsRestartable(err, p.opts.RestartErrors) {
		p.logger.Info("command rejected session tokens, restarting",
			slog.String("command", op),
			slog.Uint64("generation", sess.Generation),
		)
		p.requestRestart(sess.Generation)
		return fmt.Errorf("%s: %w: %v", op, webhelper.ErrInvalidToken, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
