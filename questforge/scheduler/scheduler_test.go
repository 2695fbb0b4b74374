package scheduler

import (
	"testing"
	"time"
)

func TestUntilNextMidnight(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "midday",
			now:  time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
			want: 12*time.Hour + 5*time.Second,
		},
		{
			name: "just before midnight",
			now:  time.Date(2026, time.March, 14, 23, 59, 0, 0, time.UTC),
			want: time.Minute + 5*time.Second,
		},
		{
			name: "exactly midnight waits a full day",
			now:  time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
			want: 24*time.Hour + 5*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := untilNextMidnight(tt.now); got != tt.want {
				t.Errorf("untilNextMidnight(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
