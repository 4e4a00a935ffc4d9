package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// stageTimeLayout keeps start_time lexically ordered so range filters work on TEXT.
const stageTimeLayout = "2006-01-02 15:04"

// Storage is the sqlite EventStore. Start times are stored as wall-clock text in loc.
type Storage struct {
	db  *sql.DB
	loc *time.Location
}

func NewStorage(dbPath string, loc *time.Location) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	// One connection serializes every writer; volumes are tiny.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	s := &Storage{db: db, loc: loc}
	if err = s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize database schema: %w", err)
	}
	log.Println("Database connection successful and schema initialized.")
	return s, nil
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			link TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS stages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			stage_num INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			price TEXT NOT NULL,
			notified INTEGER NOT NULL DEFAULT 0,
			UNIQUE(event_id, stage_num)
		);`,

		`CREATE INDEX IF NOT EXISTS idx_stages_pending ON stages (notified, start_time);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			if !strings.Contains(err.Error(), "already exists") {
				return fmt.Errorf("schema execution failed for query '%s': %w", query, err)
			}
		}
	}
	return nil
}

func (s *Storage) formatTime(t time.Time) string {
	return t.In(s.loc).Format(stageTimeLayout)
}

func (s *Storage) parseTime(v string) (time.Time, error) {
	return time.ParseInLocation(stageTimeLayout, v, s.loc)
}

func (s *Storage) CreateEvent(ctx context.Context, name, link string) (int64, error) {
	query := `INSERT INTO events (name, link) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, query, name, link)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Storage) UpdateEventName(ctx context.Context, id int64, name string) error {
	return s.updateEvent(ctx, `UPDATE events SET name = ? WHERE id = ?`, name, id)
}

func (s *Storage) UpdateEventLink(ctx context.Context, id int64, link string) error {
	return s.updateEvent(ctx, `UPDATE events SET link = ? WHERE id = ?`, link, id)
}

func (s *Storage) updateEvent(ctx context.Context, query string, value string, id int64) error {
	res, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event and all of its stages in one transaction.
func (s *Storage) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE event_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *Storage) GetEvent(ctx context.Context, id int64) (*Event, error) {
	query := `SELECT id, name, link FROM events WHERE id = ?`
	var event Event
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&event.ID, &event.Name, &event.Link); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stages, err := s.stagesFor(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Stages = stages
	return &event, nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, link FROM events ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.Name, &event.Link); err != nil {
			rows.Close()
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The single connection is free again once rows is closed.
	for i := range events {
		stages, err := s.stagesFor(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Stages = stages
	}
	return events, nil
}

func (s *Storage) stagesFor(ctx context.Context, eventID int64) ([]Stage, error) {
	query := `SELECT id, event_id, stage_num, start_time, price, notified FROM stages WHERE event_id = ? ORDER BY stage_num`
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []Stage
	for rows.Next() {
		stage, err := s.scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

func (s *Storage) scanStage(rows *sql.Rows) (Stage, error) {
	var stage Stage
	var startTime string
	if err := rows.Scan(&stage.ID, &stage.EventID, &stage.Number, &startTime, &stage.Price, &stage.Notified); err != nil {
		return stage, err
	}
	startsAt, err := s.parseTime(startTime)
	if err != nil {
		return stage, fmt.Errorf("stage %d has malformed start_time %q: %w", stage.ID, startTime, err)
	}
	stage.StartsAt = startsAt
	return stage, nil
}

// ReplaceStages swaps the whole stage set of an event for stages numbered 1..N.
func (s *Storage) ReplaceStages(ctx context.Context, eventID int64, stages []NewStage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`, eventID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stages WHERE event_id = ?`, eventID); err != nil {
		return err
	}
	query := `INSERT INTO stages (event_id, stage_num, start_time, price, notified) VALUES (?, ?, ?, ?, 0)`
	for i, stage := range stages {
		if _, err := tx.ExecContext(ctx, query, eventID, i+1, s.formatTime(stage.StartsAt), stage.Price); err != nil {
			return fmt.Errorf("insert stage %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) DueStages(ctx context.Context, now time.Time) ([]DueStage, error) {
	query := `
		SELECT s.id, s.event_id, s.stage_num, s.start_time, s.price, s.notified, e.name, e.link
		FROM stages s
		JOIN events e ON e.id = s.event_id
		WHERE s.notified = 0 AND s.start_time > ? AND s.start_time <= ?
		ORDER BY s.start_time, s.id`
	// The text bounds are a coarse prefilter at minute precision; IsDue decides.
	lower := s.formatTime(now.Add(-time.Minute))
	upper := s.formatTime(now.Add(AlertLead + CatchUpWindow))
	rows, err := s.db.QueryContext(ctx, query, lower, upper)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []DueStage
	for rows.Next() {
		var d DueStage
		var startTime string
		if err := rows.Scan(&d.Stage.ID, &d.Stage.EventID, &d.Stage.Number, &startTime, &d.Stage.Price, &d.Stage.Notified, &d.Event.Name, &d.Event.Link); err != nil {
			return nil, err
		}
		startsAt, err := s.parseTime(startTime)
		if err != nil {
			log.Printf("Skipping stage %d with malformed start_time %q: %v", d.Stage.ID, startTime, err)
			continue
		}
		d.Stage.StartsAt = startsAt
		d.Event.ID = d.Stage.EventID
		if IsDue(startsAt, now) {
			due = append(due, d)
		}
	}
	return due, rows.Err()
}

func (s *Storage) MarkNotified(ctx context.Context, stageID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE stages SET notified = 1 WHERE id = ?`, stageID)
	return err
}

func (s *Storage) EventsStartingOn(ctx context.Context, day time.Time) ([]Event, error) {
	from, to := dayBounds(day, s.loc)
	query := `
		SELECT DISTINCT e.id, e.name, e.link
		FROM stages s
		JOIN events e ON e.id = s.event_id
		WHERE s.start_time >= ? AND s.start_time < ?
		ORDER BY e.id`
	rows, err := s.db.QueryContext(ctx, query, s.formatTime(from), s.formatTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.Name, &event.Link); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Storage) Close() error {
	return s.db.Close()
}

var _ EventStore = (*Storage)(nil)

// Open picks the postgres backend when databaseURL is set, sqlite otherwise.
func Open(ctx context.Context, databaseURL, dbPath string, loc *time.Location) (EventStore, error) {
	if databaseURL != "" {
		pg, err := NewPostgresStorage(ctx, databaseURL, loc)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	if dbPath == "" {
		return nil, errors.New("storage: neither DATABASE_URL nor DATABASE_PATH is set")
	}
	s, err := NewStorage(dbPath, loc)
	if err != nil {
		return nil, err
	}
	return s, nil
}
