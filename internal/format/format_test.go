package format

import "testing"

func TestClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{60, "00:01:00"},
		{3599, "00:59:59"},
		{3661, "01:01:01"},
		{7322, "02:02:02"},
		{360000, "100:00:00"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		if got := Clock(tt.seconds); got != tt.want {
			t.Errorf("Clock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "0m"},
		{45, "45m"},
		{60, "1h"},
		{75, "1h 15m"},
		{135, "2h 15m"},
		{1440, "24h"},
		{-1, "0m"},
	}

	for _, tt := range tests {
		if got := Minutes(tt.minutes); got != tt.want {
			t.Errorf("Minutes(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}
