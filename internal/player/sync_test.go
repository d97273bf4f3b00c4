package player

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/webhelper/internal/webhelper"
)

const tick = 250 * time.Millisecond

func track(uri string, length float64) *webhelper.Track {
	return &webhelper.Track{
		TrackResource: &webhelper.Resource{Name: uri, URI: uri},
		Length:        length,
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		prev      *webhelper.Status
		next      *webhelper.Status
		local     float64
		want      []EventKind
		wantStart bool
		wantStop  bool
	}{
		{
			name:  "steady playback within threshold emits no seek",
			prev:  &webhelper.Status{Playing: true, PlayingPosition: 10, Track: track("a", 200)},
			next:  &webhelper.Status{Playing: true, PlayingPosition: 10.5, Track: track("a", 200)},
			local: 10,
			want:  []EventKind{EventStatusWillChange},
		},
		{
			name:  "drift beyond twice the tick is a seek",
			prev:  &webhelper.Status{Playing: true, PlayingPosition: 10, Track: track("a", 200)},
			next:  &webhelper.Status{Playing: true, PlayingPosition: 42, Track: track("a", 200)},
			local: 10.25,
			want:  []EventKind{EventStatusWillChange, EventSeek},
		},
		{
			name:      "resume emits play and starts the simulator",
			prev:      &webhelper.Status{Playing: false, PlayingPosition: 30, Track: track("a", 200)},
			next:      &webhelper.Status{Playing: true, PlayingPosition: 30, Track: track("a", 200)},
			local:     30,
			want:      []EventKind{EventStatusWillChange, EventPlay},
			wantStart: true,
		},
		{
			name:     "stop near the end of the track is an end",
			prev:     &webhelper.Status{Playing: true, PlayingPosition: 179, Track: track("a", 181)},
			next:     &webhelper.Status{Playing: false, PlayingPosition: 180.4, Track: track("a", 181)},
			local:    180.4,
			want:     []EventKind{EventStatusWillChange, EventEnd},
			wantStop: true,
		},
		{
			name:     "stop mid track is a pause",
			prev:     &webhelper.Status{Playing: true, PlayingPosition: 89.8, Track: track("a", 181)},
			next:     &webhelper.Status{Playing: false, PlayingPosition: 90, Track: track("a", 181)},
			local:    90,
			want:     []EventKind{EventStatusWillChange, EventPause},
			wantStop: true,
		},
		{
			name:     "stop without any track is an end",
			prev:     &webhelper.Status{Playing: true, PlayingPosition: 12},
			next:     &webhelper.Status{Playing: false, PlayingPosition: 12},
			local:    12,
			want:     []EventKind{EventStatusWillChange, EventEnd},
			wantStop: true,
		},
		{
			name:     "stop that drops the track mid play is an end",
			prev:     &webhelper.Status{Playing: true, PlayingPosition: 60, Track: track("a", 181)},
			next:     &webhelper.Status{Playing: false, PlayingPosition: 60},
			local:    60,
			want:     []EventKind{EventStatusWillChange, EventEnd},
			wantStop: true,
		},
		{
			name:  "new track emits track change before the seek",
			prev:  &webhelper.Status{Playing: true, PlayingPosition: 100, Track: track("a", 181)},
			next:  &webhelper.Status{Playing: true, PlayingPosition: 0, Track: track("b", 200)},
			local: 100.2,
			want:  []EventKind{EventStatusWillChange, EventTrackWillChange, EventSeek},
		},
		{
			name:  "track appearing from nothing is not a track change",
			prev:  &webhelper.Status{Playing: false},
			next:  &webhelper.Status{Playing: false, Track: track("b", 200)},
			local: 0,
			want:  []EventKind{EventStatusWillChange},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := diff(tt.prev, tt.next, tt.local, tick)
			if d := cmp.Diff(tt.want, kinds(tr.events)); d != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", d)
			}
			if tr.startSim != tt.wantStart || tr.stopSim != tt.wantStop {
				t.Fatalf("simulator start=%v stop=%v, want start=%v stop=%v", tr.startSim, tr.stopSim, tt.wantStart, tt.wantStop)
			}
		})
	}
}

func TestDiff_SeekCarriesNewPosition(t *testing.T) {
	prev := &webhelper.Status{Playing: true, PlayingPosition: 10, Track: track("a", 200)}
	next := &webhelper.Status{Playing: true, PlayingPosition: 95.5, Track: track("a", 200)}
	tr := diff(prev, next, 10, tick)
	last := tr.events[len(tr.events)-1]
	if last.Kind != EventSeek || last.Position != 95.5 {
		t.Fatalf("last event = %+v, want seek to 95.5", last)
	}
}

func TestInitialTransition(t *testing.T) {
	playing := initialTransition(&webhelper.Status{Playing: true, Track: track("a", 100)})
	want := []EventKind{EventReady, EventStatusWillChange, EventPlay, EventTrackWillChange}
	if d := cmp.Diff(want, kinds(playing.events)); d != "" {
		t.Fatalf("playing snapshot events (-want +got):\n%s", d)
	}
	if !playing.startSim {
		t.Fatalf("playing snapshot should start the simulator")
	}

	paused := initialTransition(&webhelper.Status{Playing: false, Track: track("a", 100)})
	if d := cmp.Diff([]EventKind{EventReady, EventStatusWillChange}, kinds(paused.events)); d != "" {
		t.Fatalf("paused snapshot events (-want +got):\n%s", d)
	}
	if paused.startSim {
		t.Fatalf("paused snapshot must not start the simulator")
	}
}

func TestParseNoTrackPolicy(t *testing.T) {
	for in, want := range map[string]NoTrackPolicy{"": NoTrackIgnore, "IGNORE": NoTrackIgnore, "error": NoTrackError, " fatal ": NoTrackFatal} {
		got, err := ParseNoTrackPolicy(in)
		if err != nil || got != want {
			t.Fatalf("ParseNoTrackPolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseNoTrackPolicy("sometimes"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
