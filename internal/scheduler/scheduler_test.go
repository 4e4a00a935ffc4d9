package scheduler

import (
	"testing"
	"time"
)

func TestAddJobRunsImmediately(t *testing.T) {
	s, err := NewScheduler(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Shutdown()

	fired := make(chan struct{}, 1)
	if err := s.AddJob("check", time.Hour, 0, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatal(err)
	}
	s.Start()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestAddDailyJobRejectsBadClock(t *testing.T) {
	s, err := NewScheduler(time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Shutdown()

	if err := s.AddDailyJob("digest", 25, 0, func() {}); err == nil {
		t.Error("expected an error for hour 25")
	}
}
