package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/r3labs/sse/v2"

	"github.com/five82/webhelper/internal/player"
	"github.com/five82/webhelper/internal/webhelper"
)

// Stream is the SSE stream notifications are published on.
const Stream = "playback"

// Payload is the JSON body of one published notification.
type Payload struct {
	Kind       player.EventKind  `json:"kind"`
	At         time.Time         `json:"at"`
	Generation uint64            `json:"generation"`
	Session    string            `json:"session,omitempty"`
	Revision   string            `json:"revision,omitempty"`
	Position   *float64          `json:"position,omitempty"`
	Track      *webhelper.Track  `json:"track,omitempty"`
	Status     *webhelper.Status `json:"status,omitempty"`
	Error      string            `json:"error,omitempty"`
	ErrorKind  string            `json:"error_kind,omitempty"`
}

// Broadcaster republishes player notifications to SSE subscribers. It
// implements player.Listener.
type Broadcaster struct {
	server *sse.Server
	logger *slog.Logger
}

var _ player.Listener = (*Broadcaster)(nil)

// NewBroadcaster creates the SSE server and its playback stream.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(Stream)
	return &Broadcaster{server: server, logger: logger}
}

// HandleEvent publishes ev. Publishing never blocks on slow subscribers.
// Status notifications carry the snapshot revision as their SSE id, so a
// subscriber can drop a status whose id matches the last one it applied.
func (b *Broadcaster) HandleEvent(ev player.Event) {
	data, err := Encode(ev)
	if err != nil {
		b.logger.Error("Failed to encode event", slog.String("kind", string(ev.Kind)), slog.String("stack", err.Error()))
		return
	}
	msg := &sse.Event{Event: []byte(ev.Kind), Data: data}
	if ev.Kind == player.EventStatusWillChange {
		if rev := ev.Status.Revision(); rev != "" {
			msg.ID = []byte(rev)
		}
	}
	b.server.Publish(Stream, msg)
}

// Handler serves the event stream at /events.
func (b *Broadcaster) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("stream") == "" {
			q := r.URL.Query()
			q.Set("stream", Stream)
			r.URL.RawQuery = q.Encode()
		}
		b.server.ServeHTTP(w, r)
	})
	return mux
}

// Close disconnects all subscribers.
func (b *Broadcaster) Close() {
	b.server.Close()
}

// Serve listens on bind until ctx is cancelled.
func (b *Broadcaster) Serve(ctx context.Context, bind string) error {
	srv := &http.Server{
		Addr:              bind,
		Handler:           b.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	b.logger.Info("event stream listening", slog.String("bind", bind))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve events: %w", err)
	case <-ctx.Done():
		b.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown events: %w", err)
		}
		return nil
	}
}

// Encode renders ev as a Payload.
func Encode(ev player.Event) ([]byte, error) {
	p := Payload{
		Kind:       ev.Kind,
		At:         ev.At.UTC(),
		Generation: ev.Generation,
		Session:    ev.Session,
		Track:      ev.Track,
		Status:     ev.Status,
	}
	if ev.Kind == player.EventStatusWillChange {
		p.Revision = ev.Status.Revision()
	}
	if ev.Kind == player.EventSeek {
		pos := ev.Position
		p.Position = &pos
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
		p.ErrorKind = webhelper.Kind(ev.Err)
	}
	return json.Marshal(p)
}
