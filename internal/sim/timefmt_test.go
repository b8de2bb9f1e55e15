package sim

import (
	"testing"
	"time"
)

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "Just now"},
		{0, "Just now"},
		{59 * time.Second, "Just now"},
		{time.Minute, "1 min ago"},
		{59 * time.Minute, "59 min ago"},
		{time.Hour, "1h ago"},
		{23 * time.Hour, "23h ago"},
		{24 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{7 * 24 * time.Hour, "1 week ago"},
		{30 * 24 * time.Hour, "4 weeks ago"},
	}
	for _, tt := range tests {
		if got := RelativeTime(tt.in); got != tt.want {
			t.Errorf("RelativeTime(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
