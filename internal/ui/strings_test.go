package ui

import "testing"

func TestFormatClock(t *testing.T) {
	tests := map[float64]string{
		0:     "0:00",
		5.9:   "0:05",
		65:    "1:05",
		181:   "3:01",
		-3:    "0:00",
		600.2: "10:00",
	}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Errorf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestProgressRatio(t *testing.T) {
	tests := []struct {
		position, length, want float64
	}{
		{position: 90, length: 180, want: 0.5},
		{position: 10, length: 0, want: 0},
		{position: 200, length: 180, want: 1},
		{position: -1, length: 180, want: 0},
	}
	for _, tt := range tests {
		if got := progressRatio(tt.position, tt.length); got != tt.want {
			t.Errorf("progressRatio(%v, %v) = %v, want %v", tt.position, tt.length, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  abcdefghij  ", 6); got != "abc..." {
		t.Fatalf("truncate = %q, want abc...", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncateMiddle("spotify:track:0123456789", 9); got != "spot…6789" {
		t.Fatalf("truncateMiddle = %q, want spot…6789", got)
	}
}
