package player

import (
	"time"

	"github.com/five82/webhelper/internal/webhelper"
)

// EventKind names a playback notification.
type EventKind string

const (
	EventReady            EventKind = "ready"
	EventStatusWillChange EventKind = "status-will-change"
	EventTrackWillChange  EventKind = "track-will-change"
	EventPlay             EventKind = "play"
	EventPause            EventKind = "pause"
	EventEnd              EventKind = "end"
	EventSeek             EventKind = "seek"
	EventOpen             EventKind = "open"
	EventClosing          EventKind = "closing"
	EventClose            EventKind = "close"
	EventError            EventKind = "error"
)

// Event is one notification. Only the fields relevant to Kind are set:
// Status for status-will-change, Track for track-will-change, Position for
// seek and Err for error. Session is "" until a session is established.
type Event struct {
	Kind       EventKind
	Status     *webhelper.Status
	Track      *webhelper.Track
	Position   float64
	Err        error
	Generation uint64
	Session    string
	At         time.Time
}

// Listener receives notifications. Calls are serialized and made from the
// engine's goroutines, so implementations must return quickly and must not
// call back into Play, Pause or SeekTo synchronously.
//
// Within one status cycle the order is fixed: status-will-change,
// track-will-change, then play or end or pause, then seek.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) HandleEvent(ev Event) { f(ev) }
