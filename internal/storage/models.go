package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: record not found")

const (
	// AlertLead is how long before a stage starts its alert becomes eligible.
	AlertLead = 10 * time.Minute
	// CatchUpWindow is the tick right after start-AlertLead, covering poll misalignment.
	CatchUpWindow = time.Minute
)

type Event struct {
	ID     int64
	Name   string
	Link   string
	Stages []Stage
}

type Stage struct {
	ID       int64
	EventID  int64
	Number   int
	StartsAt time.Time
	Price    string
	Notified bool
}

// NewStage is one row of a stage batch handed to ReplaceStages; numbering is positional.
type NewStage struct {
	StartsAt time.Time
	Price    string
}

type DueStage struct {
	Stage Stage
	Event Event
}

// EventStore is implemented by the sqlite and postgres backends.
type EventStore interface {
	CreateEvent(ctx context.Context, name, link string) (int64, error)
	UpdateEventName(ctx context.Context, id int64, name string) error
	UpdateEventLink(ctx context.Context, id int64, link string) error
	DeleteEvent(ctx context.Context, id int64) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context) ([]Event, error)
	ReplaceStages(ctx context.Context, eventID int64, stages []NewStage) error
	DueStages(ctx context.Context, now time.Time) ([]DueStage, error)
	MarkNotified(ctx context.Context, stageID int64) error
	EventsStartingOn(ctx context.Context, day time.Time) ([]Event, error)
	Close() error
}

// IsDue reports whether an unnotified stage starting at start should alert at now.
// A stage whose start is not strictly in the future never matches.
func IsDue(start, now time.Time) bool {
	left := start.Sub(now)
	if left <= 0 {
		return false
	}
	if left <= AlertLead {
		return true
	}
	notifyAt := start.Add(-AlertLead)
	return !now.Before(notifyAt) && now.Before(notifyAt.Add(CatchUpWindow))
}

// dayBounds returns [00:00, next 00:00) of day's calendar date in loc.
func dayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	d := day.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
