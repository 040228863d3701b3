package systemd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

type recorder struct {
	mu     sync.Mutex
	states []string
}

func (r *recorder) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return true, nil
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func newTestNotifier(rec *recorder, interval time.Duration) *Notifier {
	return &Notifier{
		notify:   rec.notify,
		watchdog: func(bool) (time.Duration, error) { return interval, nil },
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
}

func TestNotifier_States(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 0)

	n.Ready()
	n.Status("Showing pressure")
	n.Stopping()

	want := []string{daemon.SdNotifyReady, "STATUS=Showing pressure", daemon.SdNotifyStopping}
	if len(rec.states) != len(want) {
		t.Fatalf("states = %v, want %v", rec.states, want)
	}
	for i := range want {
		if rec.states[i] != want[i] {
			t.Errorf("state[%d] = %q, want %q", i, rec.states[i], want[i])
		}
	}
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 0)

	done := make(chan struct{})
	go func() {
		n.RunWatchdog(context.Background(), func(context.Context) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunWatchdog did not return without a watchdog interval")
	}
}

func TestNotifier_WatchdogPings(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	n.RunWatchdog(ctx, func(context.Context) error { return nil })

	if got := rec.count(daemon.SdNotifyWatchdog); got < 3 {
		t.Errorf("watchdog pings = %d, want at least 3", got)
	}
}

func TestNotifier_WatchdogWithheldWhenUnhealthy(t *testing.T) {
	rec := &recorder{}
	n := newTestNotifier(rec, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	n.RunWatchdog(ctx, func(context.Context) error { return errors.New("loop stuck") })

	if got := rec.count(daemon.SdNotifyWatchdog); got != 0 {
		t.Errorf("watchdog pinged %d times while unhealthy", got)
	}
}
