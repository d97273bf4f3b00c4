package player

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/five82/webhelper/internal/webhelper"
)

// authenticate acquires a fresh token pair for the located instance and
// performs the initial short-hold status fetch.
func (p *Player) authenticate(ctx context.Context) (Phase, error) {
	p.mu.Lock()
	inst := p.instance
	gen := p.gen
	p.mu.Unlock()

	oauth, err := p.api.FetchOAuthToken(ctx)
	if err != nil {
		return p.authFailed(ctx, gen, err)
	}
	csrf, err := p.api.FetchCSRFToken(ctx, inst)
	if err != nil {
		return p.authFailed(ctx, gen, err)
	}

	sess := webhelper.Session{
		ID:         uuid.NewString(),
		Instance:   inst,
		OAuthToken: oauth,
		CSRFToken:  csrf,
		Generation: gen,
	}
	p.mu.Lock()
	p.session = &sess
	p.mu.Unlock()
	p.logger.Info("session established",
		slog.String("session", sess.ID),
		slog.String("instance", inst.String()),
		slog.Uint64("generation", gen),
	)

	st, err := p.api.FetchStatus(ctx, sess, webhelper.StatusRequest{ReturnAfter: p.opts.InitialHold})
	return p.handle(ctx, gen, st, err)
}

func (p *Player) authFailed(ctx context.Context, gen uint64, err error) (Phase, error) {
	if ctx.Err() != nil {
		return PhaseFatal, ctx.Err()
	}
	p.emitError(err)
	var malformed *webhelper.MalformedResponseError
	if errors.As(err, &malformed) {
		return PhaseFatal, err
	}
	if _, err := p.pause(ctx, gen, p.opts.DelayAfterError); err != nil {
		return PhaseFatal, err
	}
	return PhaseReconnecting, nil
}

// currentSession returns a copy of the live session.
func (p *Player) currentSession() (webhelper.Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return webhelper.Session{}, false
	}
	return *p.session, true
}
