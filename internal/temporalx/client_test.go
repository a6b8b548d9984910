package temporalx

import (
	"testing"
	"time"
)

func TestClampBackoff(t *testing.T) {
	cases := []struct {
		base, max time.Duration
		attempt   int
		want      time.Duration
	}{
		{base: 100 * time.Millisecond, max: time.Second, attempt: 1, want: 100 * time.Millisecond},
		{base: 100 * time.Millisecond, max: time.Second, attempt: 3, want: 400 * time.Millisecond},
		{base: 100 * time.Millisecond, max: time.Second, attempt: 10, want: time.Second},
		{base: 0, max: 0, attempt: 2, want: 500 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := clampBackoff(tc.base, tc.max, tc.attempt); got != tc.want {
			t.Fatalf("clampBackoff(%v, %v, %d) = %v, want %v", tc.base, tc.max, tc.attempt, got, tc.want)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("TEMPORAL_TASK_QUEUE", "")
	cfg := LoadConfig(nil)
	if cfg.Enabled() {
		t.Fatalf("expected Temporal disabled without an address")
	}
	if cfg.TaskQueue != "quizpages-pagegen" || cfg.Namespace != "quizpages" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.mTLS() {
		t.Fatalf("mTLS should be off by default")
	}
}
