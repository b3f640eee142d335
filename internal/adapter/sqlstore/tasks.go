package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

var (
	errEmptyGroupID  = errors.New("group id is empty")
	errInvalidTaskID = errors.New("task id must be positive")
)

const taskColumns = `id, name, kinds, interval_type, interval_value, time_of_day, target_groups, is_active, last_run`

// TaskByID returns the task or an error wrapping domain.ErrNotFound.
func (s *Store) TaskByID(ctx context.Context, id int64) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	t, err := scanTask(row)
	if isNoRows(err) {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Task{}, persistErr("select task", err)
	}
	return t, nil
}

// ActiveTasks returns active tasks ordered by id.
func (s *Store) ActiveTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+taskColumns+` FROM tasks WHERE is_active = ? ORDER BY id`), true)
	if err != nil {
		return nil, persistErr("query tasks", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, persistErr("scan task", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate tasks", err)
	}
	return out, nil
}

// UpsertTask creates the task or replaces its definition, keeping last_run.
func (s *Store) UpsertTask(ctx context.Context, t domain.Task) error {
	if t.ID <= 0 {
		return persistErr("upsert task", errInvalidTaskID)
	}
	kinds, err := encodeJSON(nonNil(t.Kinds))
	if err != nil {
		return persistErr("encode task kinds", err)
	}
	targets, err := encodeJSON(nonNil(t.TargetGroups))
	if err != nil {
		return persistErr("encode task targets", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO tasks (id, name, kinds, interval_type, interval_value, time_of_day, target_groups, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			kinds = excluded.kinds,
			interval_type = excluded.interval_type,
			interval_value = excluded.interval_value,
			time_of_day = excluded.time_of_day,
			target_groups = excluded.target_groups,
			is_active = excluded.is_active`),
		t.ID, t.Name, kinds, string(t.Interval.Type), t.Interval.Value, t.Interval.TimeOfDay, targets, t.IsActive)
	if err != nil {
		return persistErr("upsert task", err)
	}
	return nil
}

// UpdateTaskLastRun records when the task last completed.
func (s *Store) UpdateTaskLastRun(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE tasks SET last_run = ? WHERE id = ?`), at.UTC(), id)
	if err != nil {
		return persistErr("update task last run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t            domain.Task
		kinds        string
		intervalType string
		targets      string
		lastRun      sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &kinds, &intervalType, &t.Interval.Value, &t.Interval.TimeOfDay,
		&targets, &t.IsActive, &lastRun); err != nil {
		return domain.Task{}, err
	}
	var err error
	if t.Kinds, err = decodeStrings(kinds); err != nil {
		return domain.Task{}, fmt.Errorf("decode kinds of task %d: %w", t.ID, err)
	}
	if t.TargetGroups, err = decodeStrings(targets); err != nil {
		return domain.Task{}, fmt.Errorf("decode targets of task %d: %w", t.ID, err)
	}
	if len(t.TargetGroups) == 0 {
		t.TargetGroups = nil
	}
	t.Interval.Type = domain.IntervalType(intervalType)
	if lastRun.Valid {
		t.LastRun = lastRun.Time.UTC()
	}
	return t, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
