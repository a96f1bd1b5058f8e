package scheduler

import (
	"context"
	"testing"
	"time"
)

func waitForFire(t *testing.T, fired <-chan time.Time) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an immediate fire")
	}
}

func TestTickerSchedulerClampsInterval(t *testing.T) {
	t.Parallel()

	if got := NewTickerScheduler(time.Second).interval; got != time.Minute {
		t.Fatalf("expected sub-minute interval clamped to a minute, got %v", got)
	}
	if got := NewTickerScheduler(2 * time.Hour).interval; got != 2*time.Hour {
		t.Fatalf("expected interval kept, got %v", got)
	}
}

func TestTickerSchedulerFiresImmediately(t *testing.T) {
	t.Parallel()

	sched := NewTickerScheduler(time.Hour)
	fired := make(chan time.Time, 1)

	if err := sched.Start(context.Background(), func(at time.Time) { fired <- at }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sched.Stop(context.Background())

	waitForFire(t, fired)

	// A second Start while running is a no-op: no second immediate fire.
	if err := sched.Start(context.Background(), func(at time.Time) { fired <- at }); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	select {
	case <-fired:
		t.Fatal("expected overlapping Start to be ignored")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTickerSchedulerStopAndRestart(t *testing.T) {
	t.Parallel()

	sched := NewTickerScheduler(time.Hour)
	fired := make(chan time.Time, 1)
	job := func(at time.Time) { fired <- at }

	if err := sched.Start(context.Background(), job); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForFire(t, fired)

	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stop twice is safe.
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// A fresh Start after Stop fires again.
	if err := sched.Start(context.Background(), job); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer sched.Stop(context.Background())
	waitForFire(t, fired)
}

func TestTickerSchedulerNilJob(t *testing.T) {
	t.Parallel()

	sched := NewTickerScheduler(time.Hour)
	if err := sched.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start with nil job: %v", err)
	}
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
