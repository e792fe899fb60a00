package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubPurger struct {
	calls   atomic.Int32
	purged  int
	err     error
	gotKeep atomic.Int64
}

func (s *stubPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	s.calls.Add(1)
	s.gotKeep.Store(int64(retention))
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("purge called without a deadline")
	}
	return s.purged, s.err
}

func TestDLQJanitor_Sweep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		purger    *stubPurger
		nilPurger bool
		want      int
		wantErr   bool
	}{
		{name: "nothing configured", nilPurger: true},
		{name: "nothing old enough", purger: &stubPurger{}},
		{name: "purges old jobs", purger: &stubPurger{purged: 3}, want: 3},
		{name: "partial purge then failure", purger: &stubPurger{purged: 2, err: errors.New("channel closed")}, want: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var purger DLQPurger
			if !tt.nilPurger {
				purger = tt.purger
			}
			j := NewDLQJanitor(purger, time.Hour, 24*time.Hour, nil)

			got, err := j.sweep(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("sweep() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("sweep() = %d, want %d", got, tt.want)
			}
			if tt.purger != nil && time.Duration(tt.purger.gotKeep.Load()) != 24*time.Hour {
				t.Errorf("retention passed = %v, want 24h", time.Duration(tt.purger.gotKeep.Load()))
			}
		})
	}
}

func TestDLQJanitor_RunSweepsImmediately(t *testing.T) {
	t.Parallel()

	purger := &stubPurger{purged: 1}
	j := NewDLQJanitor(purger, 24*time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	deadline := time.After(time.Second)
	for purger.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Run did not sweep before the first tick")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
