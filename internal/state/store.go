package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/webhelper/internal/player"
	"github.com/five82/webhelper/internal/webhelper"
)

// DefaultHistory is how many notifications a zero Store keeps.
const DefaultHistory = 200

// Record is one remembered notification.
type Record struct {
	Kind     player.EventKind
	At       time.Time
	Position float64
	Track    string
	Err      string
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Status            *webhelper.Status
	HasStatus         bool
	Connected         bool
	SessionID         string
	Revision          string    // revision of Status, "" when unknown
	StatusChanged     time.Time // last snapshot whose content differed
	Events            []Record
	LastUpdated       time.Time
	LastError         error
	ConsecutiveErrors int // error notifications since the last good snapshot
}

// IsOffline returns true when the companion is gone or keeps failing.
func (s Snapshot) IsOffline() bool {
	return !s.Connected || s.ConsecutiveErrors >= 2
}

// Store records player notifications for the UI. It implements
// player.Listener.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	history  int
}

// NewStore returns a Store keeping the last history notifications.
func NewStore(history int) *Store {
	return &Store{history: history}
}

var _ player.Listener = (*Store)(nil)

// HandleEvent folds one notification into the snapshot.
func (s *Store) HandleEvent(ev player.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = ev.At
	if s.snapshot.LastUpdated.IsZero() {
		s.snapshot.LastUpdated = time.Now()
	}

	if ev.Session != "" {
		s.snapshot.SessionID = ev.Session
	}

	rec := Record{Kind: ev.Kind, At: s.snapshot.LastUpdated, Position: ev.Position}
	switch ev.Kind {
	case player.EventOpen, player.EventReady:
		s.snapshot.Connected = true
	case player.EventClosing, player.EventClose:
		s.snapshot.Connected = false
		s.snapshot.SessionID = ""
	case player.EventStatusWillChange:
		if ev.Status != nil {
			rev := ev.Status.Revision()
			if rev == "" || rev != s.snapshot.Revision {
				s.snapshot.StatusChanged = s.snapshot.LastUpdated
			}
			s.snapshot.Revision = rev
			s.snapshot.Status = ev.Status.Clone()
			s.snapshot.HasStatus = true
			s.snapshot.LastError = nil
			s.snapshot.ConsecutiveErrors = 0
		}
	case player.EventTrackWillChange:
		rec.Track = ev.Track.URI()
	case player.EventError:
		s.snapshot.LastError = ev.Err
		s.snapshot.ConsecutiveErrors++
		if ev.Err != nil {
			rec.Err = ev.Err.Error()
		}
	}

	if ev.Kind == player.EventStatusWillChange {
		return
	}
	s.snapshot.Events = append(s.snapshot.Events, rec)
	if limit := s.limit(); len(s.snapshot.Events) > limit {
		s.snapshot.Events = append([]Record(nil), s.snapshot.Events[len(s.snapshot.Events)-limit:]...)
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Status = s.snapshot.Status.Clone()
	snap.Events = cloneRecords(s.snapshot.Events)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) limit() int {
	if s.history <= 0 {
		return DefaultHistory
	}
	return s.history
}

func cloneRecords(items []Record) []Record {
	if len(items) == 0 {
		return nil
	}
	dup := make([]Record, len(items))
	copy(dup, items)
	return dup
}
