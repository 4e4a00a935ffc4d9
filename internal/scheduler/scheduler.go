package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Scheduler struct {
	instance gocron.Scheduler
}

// NewScheduler creates a scheduler whose daily jobs fire in loc.
func NewScheduler(loc *time.Location) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &Scheduler{instance: s}, nil
}

// AddJob runs job every interval, first after firstRunAfter (immediately when it is not positive).
// A run that would overlap the previous one is skipped.
func (s *Scheduler) AddJob(tag string, interval, firstRunAfter time.Duration, job func()) error {
	startAt := gocron.WithStartImmediately()
	if firstRunAfter > 0 {
		startAt = gocron.WithStartDateTime(time.Now().Add(firstRunAfter))
	}
	_, err := s.instance.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(job),
		gocron.WithStartAt(startAt),
		gocron.WithTags(tag),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", tag, err)
	}
	log.Printf("Scheduled job %s every %s", tag, interval)
	return nil
}

// AddDailyJob runs job once a day at hour:minute in the scheduler's location.
func (s *Scheduler) AddDailyJob(tag string, hour, minute uint, job func()) error {
	_, err := s.instance.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(job),
		gocron.WithTags(tag),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to add daily job %s: %w", tag, err)
	}
	log.Printf("Scheduled daily job %s at %02d:%02d", tag, hour, minute)
	return nil
}

func (s *Scheduler) Start() {
	s.instance.Start()
	log.Println("Scheduler started")
}

func (s *Scheduler) Shutdown() error {
	return s.instance.Shutdown()
}
