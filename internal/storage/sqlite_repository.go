package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/focusd/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteRepository struct {
	db *sql.DB // nil when scoped to a transaction
	q  querier
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, q: db}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// DB exposes the underlying handle for migrations. Nil when the
// repository is scoped to a transaction.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Store) error) error {
	return r.withTx(ctx, func(tx *SQLiteRepository) error { return fn(tx) })
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*SQLiteRepository) error) error {
	if r.db == nil {
		// already inside a transaction, join it
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLiteRepository{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) CreateList(ctx context.Context, in model.List) error {
	// an owner's first list starts out active
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO lists (id, owner_id, name, description, is_active, timer_phase, current_phase, remaining_seconds, timer_started_at, timer_updated_at, completed_sessions, session_seconds, short_break_seconds, long_break_seconds, created_at)
		VALUES (?, ?, ?, ?, (CASE WHEN EXISTS (SELECT 1 FROM lists WHERE owner_id = ? AND is_active = 1) THEN 0 ELSE 1 END), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.OwnerID, in.Name, in.Description, in.OwnerID,
		in.TimerPhase, in.CurrentPhase, in.RemainingSeconds,
		nullTime(in.TimerStartedAt), nullTime(in.TimerUpdatedAt),
		in.CompletedSessions, in.SessionSeconds, in.ShortBreakSeconds, in.LongBreakSeconds,
		mustTime(in.CreatedAt),
	)
	if isConstraintErr(err) {
		return fmt.Errorf("%w: list %q", ErrConflict, in.Name)
	}
	return err
}

func (r *SQLiteRepository) GetList(ctx context.Context, ownerID, id string) (model.List, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, is_active, timer_phase, current_phase, remaining_seconds, timer_started_at, timer_updated_at, completed_sessions, session_seconds, short_break_seconds, long_break_seconds, created_at
		FROM lists WHERE id = ? AND owner_id = ?`, id, ownerID)
	list, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.List{}, ErrNotFound
		}
		return model.List{}, err
	}
	return list, nil
}

func (r *SQLiteRepository) GetActiveList(ctx context.Context, ownerID string) (model.List, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, owner_id, name, description, is_active, timer_phase, current_phase, remaining_seconds, timer_started_at, timer_updated_at, completed_sessions, session_seconds, short_break_seconds, long_break_seconds, created_at
		FROM lists WHERE owner_id = ? AND is_active = 1`, ownerID)
	list, err := scanList(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.List{}, ErrNotFound
		}
		return model.List{}, err
	}
	return list, nil
}

func (r *SQLiteRepository) ListLists(ctx context.Context, ownerID string) ([]model.List, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, owner_id, name, description, is_active, timer_phase, current_phase, remaining_seconds, timer_started_at, timer_updated_at, completed_sessions, session_seconds, short_break_seconds, long_break_seconds, created_at
		FROM lists WHERE owner_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.List, 0)
	for rows.Next() {
		list, scanErr := scanList(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, list)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateList(ctx context.Context, in model.List) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE lists
		SET name = ?, description = ?, timer_phase = ?, current_phase = ?, remaining_seconds = ?, timer_started_at = ?, timer_updated_at = ?, completed_sessions = ?, session_seconds = ?, short_break_seconds = ?, long_break_seconds = ?
		WHERE id = ? AND owner_id = ?`,
		in.Name, in.Description, in.TimerPhase, in.CurrentPhase, in.RemainingSeconds,
		nullTime(in.TimerStartedAt), nullTime(in.TimerUpdatedAt),
		in.CompletedSessions, in.SessionSeconds, in.ShortBreakSeconds, in.LongBreakSeconds,
		in.ID, in.OwnerID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ActivateList(ctx context.Context, ownerID, id string) error {
	return r.withTx(ctx, func(tx *SQLiteRepository) error {
		res, err := tx.q.ExecContext(ctx, `UPDATE lists SET is_active = 1 WHERE id = ? AND owner_id = ?`, id, ownerID)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		_, err = tx.q.ExecContext(ctx, `UPDATE lists SET is_active = 0 WHERE owner_id = ? AND id <> ?`, ownerID, id)
		return err
	})
}

func (r *SQLiteRepository) DeleteList(ctx context.Context, ownerID, id string) error {
	return r.withTx(ctx, func(tx *SQLiteRepository) error {
		var active int
		err := tx.q.QueryRowContext(ctx, `SELECT is_active FROM lists WHERE id = ? AND owner_id = ?`, id, ownerID).Scan(&active)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.q.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
			return err
		}
		if active == 1 {
			// the active slot moves to the owner's oldest surviving list
			_, err = tx.q.ExecContext(ctx, `
				UPDATE lists SET is_active = 1
				WHERE id = (SELECT id FROM lists WHERE owner_id = ? ORDER BY created_at ASC, id ASC LIMIT 1)`, ownerID)
			return err
		}
		return nil
	})
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, in model.Task) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO tasks (id, list_id, parent_id, content, is_done, labels, level, path, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ListID, nullString(in.ParentID), in.Content, boolInt(in.Done),
		joinLabels(in.Labels), in.Level, in.Path, in.Position, mustTime(in.CreatedAt),
	)
	return err
}

func (r *SQLiteRepository) GetTask(ctx context.Context, ownerID, id string) (model.Task, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT t.id, t.list_id, t.parent_id, t.content, t.is_done, t.labels, t.level, t.path, t.position, t.created_at
		FROM tasks t
		JOIN lists l ON l.id = t.list_id
		WHERE t.id = ? AND l.owner_id = ?`, id, ownerID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (r *SQLiteRepository) UpdateTask(ctx context.Context, in model.Task) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE tasks
		SET parent_id = ?, content = ?, is_done = ?, labels = ?, level = ?, path = ?, position = ?
		WHERE id = ?`,
		nullString(in.ParentID), in.Content, boolInt(in.Done), joinLabels(in.Labels),
		in.Level, in.Path, in.Position, in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE id = ? AND list_id IN (SELECT id FROM lists WHERE owner_id = ?)`, id, ownerID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListTasks(ctx context.Context, ownerID, listID string) ([]model.Task, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT t.id, t.list_id, t.parent_id, t.content, t.is_done, t.labels, t.level, t.path, t.position, t.created_at
		FROM tasks t
		JOIN lists l ON l.id = t.list_id
		WHERE t.list_id = ? AND l.owner_id = ?
		ORDER BY t.level ASC, t.position ASC, t.id ASC`, listID, ownerID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *SQLiteRepository) ListChildren(ctx context.Context, ownerID, listID string, parentID *string) ([]model.Task, error) {
	query := `
		SELECT t.id, t.list_id, t.parent_id, t.content, t.is_done, t.labels, t.level, t.path, t.position, t.created_at
		FROM tasks t
		JOIN lists l ON l.id = t.list_id
		WHERE t.list_id = ? AND l.owner_id = ?`
	args := []any{listID, ownerID}
	if parentID == nil {
		query += ` AND t.parent_id IS NULL`
	} else {
		query += ` AND t.parent_id = ?`
		args = append(args, *parentID)
	}
	query += ` ORDER BY t.position ASC, t.id ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *SQLiteRepository) ListSubtree(ctx context.Context, ownerID, rootPath string) ([]model.Task, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT t.id, t.list_id, t.parent_id, t.content, t.is_done, t.labels, t.level, t.path, t.position, t.created_at
		FROM tasks t
		JOIN lists l ON l.id = t.list_id
		WHERE l.owner_id = ? AND (t.path = ? OR t.path LIKE ?)
		ORDER BY t.level ASC, t.position ASC, t.id ASC`,
		ownerID, rootPath, rootPath+model.PathSeparator+"%")
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ",")
}

func splitLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var parent sql.NullString
	var done int
	var labels string
	var created string
	if err := s.Scan(&out.ID, &out.ListID, &parent, &out.Content, &done, &labels, &out.Level, &out.Path, &out.Position, &created); err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	if parent.Valid {
		parentID := parent.String
		out.ParentID = &parentID
	}
	out.Done = done == 1
	out.Labels = splitLabels(labels)
	out.CreatedAt = createdAt
	return out, nil
}

func scanList(s scanner) (model.List, error) {
	var out model.List
	var active int
	var started sql.NullString
	var updated sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.OwnerID, &out.Name, &out.Description, &active,
		&out.TimerPhase, &out.CurrentPhase, &out.RemainingSeconds, &started, &updated,
		&out.CompletedSessions, &out.SessionSeconds, &out.ShortBreakSeconds, &out.LongBreakSeconds, &created); err != nil {
		return model.List{}, err
	}
	startedAt, err := parseNullableTime(started)
	if err != nil {
		return model.List{}, err
	}
	updatedAt, err := parseNullableTime(updated)
	if err != nil {
		return model.List{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.List{}, err
	}
	out.Active = active == 1
	out.TimerStartedAt = startedAt
	out.TimerUpdatedAt = updatedAt
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
