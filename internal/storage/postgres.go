package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is the EventStore for deployments that already run PostgreSQL.
type PostgresStorage struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

func NewPostgresStorage(ctx context.Context, connStr string, loc *time.Location) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse config error: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgx connect error: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping error: %w", err)
	}
	s := &PostgresStorage{pool: pool, loc: loc}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("could not initialize database schema: %w", err)
	}
	log.Println("PostgreSQL connection successful and schema initialized.")
	return s, nil
}

func (s *PostgresStorage) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			link TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS stages (
			id BIGSERIAL PRIMARY KEY,
			event_id BIGINT NOT NULL,
			stage_num INTEGER NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			price TEXT NOT NULL,
			notified BOOLEAN NOT NULL DEFAULT false,
			UNIQUE (event_id, stage_num)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stages_pending ON stages (notified, start_time)`,
	}
	for _, query := range queries {
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("schema execution failed for query '%s': %w", query, err)
		}
	}
	return nil
}

func (s *PostgresStorage) CreateEvent(ctx context.Context, name, link string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `INSERT INTO events (name, link) VALUES ($1, $2) RETURNING id`, name, link).Scan(&id)
	return id, err
}

func (s *PostgresStorage) UpdateEventName(ctx context.Context, id int64, name string) error {
	return s.updateEvent(ctx, `UPDATE events SET name = $1 WHERE id = $2`, name, id)
}

func (s *PostgresStorage) UpdateEventLink(ctx context.Context, id int64, link string) error {
	return s.updateEvent(ctx, `UPDATE events SET link = $1 WHERE id = $2`, link, id)
}

func (s *PostgresStorage) updateEvent(ctx context.Context, query, value string, id int64) error {
	tag, err := s.pool.Exec(ctx, query, value, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteEvent(ctx context.Context, id int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stages WHERE event_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStorage) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := s.pool.QueryRow(ctx, `SELECT id, name, link FROM events WHERE id = $1`, id).Scan(&event.ID, &event.Name, &event.Link)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStorage) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, link FROM events ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		err := row.Scan(&e.ID, &e.Name, &e.Link)
		return e, err
	})
	if err != nil {
		return nil, err
	}
	for i := range events {
		stages, err := s.stagesFor(ctx, events[i].ID)
		if err != nil {
			return nil, err
		}
		events[i].Stages = stages
	}
	return events, nil
}

func (s *PostgresStorage) stagesFor(ctx context.Context, eventID int64) ([]Stage, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, event_id, stage_num, start_time, price, notified
FROM stages
WHERE event_id = $1
ORDER BY stage_num
`, eventID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Stage, error) {
		var st Stage
		err := row.Scan(&st.ID, &st.EventID, &st.Number, &st.StartsAt, &st.Price, &st.Notified)
		st.StartsAt = st.StartsAt.In(s.loc)
		return st, err
	})
}

func (s *PostgresStorage) ReplaceStages(ctx context.Context, eventID int64, stages []NewStage) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM stages WHERE event_id = $1`, eventID); err != nil {
			return err
		}
		for i, stage := range stages {
			_, err := tx.Exec(ctx, `
INSERT INTO stages (event_id, stage_num, start_time, price, notified)
VALUES ($1, $2, $3, $4, false)
`, eventID, i+1, stage.StartsAt, stage.Price)
			if err != nil {
				return fmt.Errorf("insert stage %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func (s *PostgresStorage) DueStages(ctx context.Context, now time.Time) ([]DueStage, error) {
	rows, err := s.pool.Query(ctx, `
SELECT s.id, s.event_id, s.stage_num, s.start_time, s.price, s.notified, e.name, e.link
FROM stages s
JOIN events e ON e.id = s.event_id
WHERE s.notified = false
  AND s.start_time > $1
  AND s.start_time <= $2
ORDER BY s.start_time, s.id
`, now, now.Add(AlertLead+CatchUpWindow))
	if err != nil {
		return nil, err
	}
	candidates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (DueStage, error) {
		var d DueStage
		err := row.Scan(&d.Stage.ID, &d.Stage.EventID, &d.Stage.Number, &d.Stage.StartsAt, &d.Stage.Price, &d.Stage.Notified, &d.Event.Name, &d.Event.Link)
		d.Stage.StartsAt = d.Stage.StartsAt.In(s.loc)
		d.Event.ID = d.Stage.EventID
		return d, err
	})
	if err != nil {
		return nil, err
	}
	var due []DueStage
	for _, d := range candidates {
		if IsDue(d.Stage.StartsAt, now) {
			due = append(due, d)
		}
	}
	return due, nil
}

func (s *PostgresStorage) MarkNotified(ctx context.Context, stageID int64) error {
	_, err := s.pool.Exec(ctx, `UPDATE stages SET notified = true WHERE id = $1`, stageID)
	return err
}

func (s *PostgresStorage) EventsStartingOn(ctx context.Context, day time.Time) ([]Event, error) {
	from, to := dayBounds(day, s.loc)
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT e.id, e.name, e.link
FROM stages s
JOIN events e ON e.id = s.event_id
WHERE s.start_time >= $1
  AND s.start_time <  $2
ORDER BY e.id
`, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var e Event
		err := row.Scan(&e.ID, &e.Name, &e.Link)
		return e, err
	})
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

var _ EventStore = (*PostgresStorage)(nil)
