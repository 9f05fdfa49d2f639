package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunOnceWithoutLocker(t *testing.T) {
	s := NewScheduler(nil, quietLogger())

	ran := 0
	job := Job{
		Name:     "noop",
		Interval: time.Minute,
		Run: func(ctx context.Context) (string, error) {
			ran++
			return "ok", nil
		},
	}
	s.runOnce(context.Background(), job)
	s.runOnce(context.Background(), job)
	if ran != 2 {
		t.Errorf("job ran %d times, want 2", ran)
	}
}

func TestRunOnceSurvivesJobError(t *testing.T) {
	s := NewScheduler(nil, quietLogger())
	job := Job{
		Name:     "failing",
		Interval: time.Minute,
		Run: func(ctx context.Context) (string, error) {
			return "", errors.New("boom")
		},
	}
	// Must not panic; the error is logged and the loop carries on.
	s.runOnce(context.Background(), job)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	s := NewScheduler(nil, quietLogger())

	ticks := make(chan struct{}, 100)
	s.Register(Job{
		Name:     "ticker",
		Interval: 5 * time.Millisecond,
		Run: func(ctx context.Context) (string, error) {
			ticks <- struct{}{}
			return "", nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	cancel()

	// Drain anything in flight, then ensure the loop is quiet.
	time.Sleep(20 * time.Millisecond)
	for len(ticks) > 0 {
		<-ticks
	}
	time.Sleep(30 * time.Millisecond)
	if len(ticks) != 0 {
		t.Error("job still ticking after cancel")
	}
}
