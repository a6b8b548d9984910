package temporalworker

import (
	"testing"
	"time"
)

func TestCronEvery(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{6 * time.Hour, "@every 6h0m0s"},
		{90 * time.Minute, "@every 1h30m0s"},
		{10 * time.Second, "@every 1m0s"},
	}
	for _, tc := range cases {
		if got := CronEvery(tc.in); got != tc.want {
			t.Fatalf("CronEvery(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
