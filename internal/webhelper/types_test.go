package webhelper

import (
	"encoding/json"
	"testing"
)

func TestSeekURI(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "spotify:track:x#0:00"},
		{5, "spotify:track:x#0:05"},
		{65, "spotify:track:x#1:05"},
		{64.6, "spotify:track:x#1:05"},
		{600, "spotify:track:x#10:00"},
		{-3, "spotify:track:x#0:00"},
	}
	for _, tt := range tests {
		if got := SeekURI("spotify:track:x", tt.seconds); got != tt.want {
			t.Errorf("SeekURI(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestStatus_IsOfflineDistinguishesAbsentFromFalse(t *testing.T) {
	var absent, offline, online Status
	if err := json.Unmarshal([]byte(`{}`), &absent); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"online":false}`), &offline); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"online":true}`), &online); err != nil {
		t.Fatal(err)
	}
	if absent.IsOffline() {
		t.Fatalf("absent online field treated as offline")
	}
	if !offline.IsOffline() {
		t.Fatalf("online=false not treated as offline")
	}
	if online.IsOffline() {
		t.Fatalf("online=true treated as offline")
	}
}

func TestTrack_MetadataRoundTripsOpaquely(t *testing.T) {
	raw := `{"track_resource":{"name":"A","uri":"spotify:track:a"},"length":200,"custom":[1,2]}`
	var track Track
	if err := json.Unmarshal([]byte(raw), &track); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if track.URI() != "spotify:track:a" || track.Title() != "A" || track.Length != 200 {
		t.Fatalf("decoded track = %#v", track)
	}
	out, err := json.Marshal(track)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("marshal = %s, want original body", out)
	}
}

func TestStatus_CloneIsIndependent(t *testing.T) {
	online := true
	orig := &Status{Playing: true, Online: &online, Track: &Track{Length: 10}}
	dup := orig.Clone()
	dup.Track.Length = 20
	*dup.Online = false
	if orig.Track.Length != 10 || !*orig.Online {
		t.Fatalf("clone shares state with original")
	}
	var nilStatus *Status
	if nilStatus.Clone() != nil || nilStatus.TrackURI() != "" {
		t.Fatalf("nil status helpers misbehave")
	}
}

func TestStatus_Revision(t *testing.T) {
	var nilStatus *Status
	if got := nilStatus.Revision(); got != "" {
		t.Fatalf("nil Revision = %q, want empty", got)
	}
	if got := (&Status{}).Revision(); got != "" {
		t.Fatalf("unfingerprinted Revision = %q, want empty", got)
	}
	if got := (&Status{Fingerprint: 0xbeef}).Revision(); got != "beef" {
		t.Fatalf("Revision = %q, want beef", got)
	}
}
