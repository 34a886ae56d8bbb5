package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/mo"

	"github.com/sandeepkv93/calplan/internal/log"
	"github.com/sandeepkv93/calplan/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

var _ Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Debug("sqlite store opened", "path", path)
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) CreateTemplate(ctx context.Context, in model.Template) error {
	if err := validateTemplate(in); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		kind, interval, end := ruleColumns(in.Rule)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO templates (id, title, base_date, start_minute, end_minute, location, rule_kind, rule_interval, rule_end_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.Event.ID, in.Event.Title, in.Event.Date.String(), in.Event.Start.Minutes(), in.Event.End.Minutes(),
			in.Event.Location, kind, interval, end, mustTime(r.now()),
		)
		if err != nil {
			return err
		}
		return replaceExceptions(ctx, tx, in)
	})
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, id string) (model.Template, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, base_date, start_minute, end_minute, location, rule_kind, rule_interval, rule_end_date
		FROM templates WHERE id = ?`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Template{}, ErrNotFound
		}
		return model.Template{}, err
	}
	if err := r.loadExceptions(ctx, []*model.Template{&tpl}); err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

func (r *SQLiteRepository) UpdateTemplate(ctx context.Context, in model.Template) error {
	if err := validateTemplate(in); err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		kind, interval, end := ruleColumns(in.Rule)
		res, err := tx.ExecContext(ctx, `
			UPDATE templates
			SET title = ?, base_date = ?, start_minute = ?, end_minute = ?, location = ?, rule_kind = ?, rule_interval = ?, rule_end_date = ?
			WHERE id = ?`,
			in.Event.Title, in.Event.Date.String(), in.Event.Start.Minutes(), in.Event.End.Minutes(),
			in.Event.Location, kind, interval, end, in.Event.ID,
		)
		if err != nil {
			return err
		}
		if err := checkRowsAffected(res); err != nil {
			return err
		}
		return replaceExceptions(ctx, tx, in)
	})
}

func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM template_exceptions WHERE template_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

func (r *SQLiteRepository) ListTemplates(ctx context.Context, filter TemplateListFilter) ([]model.Template, error) {
	query := `SELECT id, title, base_date, start_minute, end_minute, location, rule_kind, rule_interval, rule_end_date FROM templates`
	args := make([]any, 0, 3)
	if !filter.Until.IsZero() {
		query += ` WHERE base_date <= ?`
		args = append(args, filter.Until.String())
	}
	query += ` ORDER BY base_date ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Template, 0)
	for rows.Next() {
		tpl, scanErr := scanTemplate(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*model.Template, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := r.loadExceptions(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) CreateFixedEvent(ctx context.Context, in model.DatedEvent) error {
	return r.insertFixedEvent(ctx, r.db, in, false)
}

func (r *SQLiteRepository) insertFixedEvent(ctx context.Context, ex execer, in model.DatedEvent, upsert bool) error {
	if in.Date.IsZero() {
		return fmt.Errorf("storage: fixed event %q has no date", in.ID)
	}
	if err := in.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO fixed_events (id, title, event_date, start_minute, end_minute, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if upsert {
		query += ` ON CONFLICT(id) DO UPDATE SET title = excluded.title, event_date = excluded.event_date,
			start_minute = excluded.start_minute, end_minute = excluded.end_minute`
	}
	_, err := ex.ExecContext(ctx, query,
		in.ID, in.Title, in.Date.String(), in.Start.Minutes(), in.End.Minutes(), mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) GetFixedEvent(ctx context.Context, id string) (model.DatedEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, event_date, start_minute, end_minute
		FROM fixed_events WHERE id = ?`, id)
	ev, err := scanFixedEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DatedEvent{}, ErrNotFound
		}
		return model.DatedEvent{}, err
	}
	return ev, nil
}

func (r *SQLiteRepository) DeleteFixedEvent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) ListFixedEvents(ctx context.Context, filter FixedEventListFilter) ([]model.DatedEvent, error) {
	query := `SELECT id, title, event_date, start_minute, end_minute FROM fixed_events`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if !filter.From.IsZero() {
		clauses = append(clauses, "event_date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "event_date <= ?")
		args = append(args, filter.To.String())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY event_date ASC, start_minute ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.DatedEvent, 0)
	for rows.Next() {
		ev, scanErr := scanFixedEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateWorkItem(ctx context.Context, in model.WorkItem) error {
	return r.insertWorkItem(ctx, r.db, in, false)
}

func (r *SQLiteRepository) insertWorkItem(ctx context.Context, ex execer, in model.WorkItem, upsert bool) error {
	if err := in.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO work_items (id, title, duration_minutes, priority, deadline, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if upsert {
		query += ` ON CONFLICT(id) DO UPDATE SET title = excluded.title, duration_minutes = excluded.duration_minutes,
			priority = excluded.priority, deadline = excluded.deadline`
	}
	_, err := ex.ExecContext(ctx, query,
		in.ID, in.Title, in.DurationMinutes, string(in.Priority), nullDate(in.Deadline), mustTime(r.now()),
	)
	return err
}

func (r *SQLiteRepository) GetWorkItem(ctx context.Context, id string) (model.WorkItem, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, duration_minutes, priority, deadline
		FROM work_items WHERE id = ?`, id)
	item, err := scanWorkItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.WorkItem{}, ErrNotFound
		}
		return model.WorkItem{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) UpdateWorkItem(ctx context.Context, in model.WorkItem) error {
	if err := in.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE work_items
		SET title = ?, duration_minutes = ?, priority = ?, deadline = ?
		WHERE id = ?`,
		in.Title, in.DurationMinutes, string(in.Priority), nullDate(in.Deadline), in.ID,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (r *SQLiteRepository) DeleteWorkItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

// ListWorkItems returns items in insertion order, which is the tiebreak the
// scheduler uses for equal scores.
func (r *SQLiteRepository) ListWorkItems(ctx context.Context, filter WorkItemListFilter) ([]model.WorkItem, error) {
	query := `SELECT id, title, duration_minutes, priority, deadline FROM work_items`
	args := make([]any, 0, 3)
	if filter.Priority != "" {
		query += ` WHERE priority = ?`
		args = append(args, string(filter.Priority))
	}
	query += ` ORDER BY rowid ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.WorkItem, 0)
	for rows.Next() {
		item, scanErr := scanWorkItem(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Import upserts a whole snapshot in one transaction. Rows already in the
// store but absent from the snapshot are left alone.
func (r *SQLiteRepository) Import(ctx context.Context, in Snapshot) error {
	for _, tpl := range in.Templates {
		if err := validateTemplate(tpl); err != nil {
			return err
		}
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, tpl := range in.Templates {
			kind, interval, end := ruleColumns(tpl.Rule)
			_, err := tx.ExecContext(ctx, `
				INSERT INTO templates (id, title, base_date, start_minute, end_minute, location, rule_kind, rule_interval, rule_end_date, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET title = excluded.title, base_date = excluded.base_date,
					start_minute = excluded.start_minute, end_minute = excluded.end_minute, location = excluded.location,
					rule_kind = excluded.rule_kind, rule_interval = excluded.rule_interval, rule_end_date = excluded.rule_end_date`,
				tpl.Event.ID, tpl.Event.Title, tpl.Event.Date.String(), tpl.Event.Start.Minutes(), tpl.Event.End.Minutes(),
				tpl.Event.Location, kind, interval, end, mustTime(r.now()),
			)
			if err != nil {
				return fmt.Errorf("import template %q: %w", tpl.Event.ID, err)
			}
			if err := replaceExceptions(ctx, tx, tpl); err != nil {
				return fmt.Errorf("import template %q: %w", tpl.Event.ID, err)
			}
		}
		for _, ev := range in.Events {
			if err := r.insertFixedEvent(ctx, tx, ev, true); err != nil {
				return fmt.Errorf("import fixed event %q: %w", ev.ID, err)
			}
		}
		for _, item := range in.Items {
			if err := r.insertWorkItem(ctx, tx, item, true); err != nil {
				return fmt.Errorf("import work item %q: %w", item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("snapshot imported", "templates", len(in.Templates), "events", len(in.Events), "items", len(in.Items))
	return nil
}

func (r *SQLiteRepository) Snapshot(ctx context.Context) (Snapshot, error) {
	templates, err := r.ListTemplates(ctx, TemplateListFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("list templates: %w", err)
	}
	events, err := r.ListFixedEvents(ctx, FixedEventListFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("list fixed events: %w", err)
	}
	items, err := r.ListWorkItems(ctx, WorkItemListFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("list work items: %w", err)
	}
	return Snapshot{Templates: templates, Events: events, Items: items}, nil
}

func (r *SQLiteRepository) loadExceptions(ctx context.Context, templates []*model.Template) error {
	byID := make(map[string]*model.Template, len(templates))
	for _, tpl := range templates {
		if tpl.Rule != nil {
			byID[tpl.Event.ID] = tpl
		}
	}
	if len(byID) == 0 {
		return nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT template_id, exception_date FROM template_exceptions
		ORDER BY template_id ASC, exception_date ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return err
		}
		tpl, ok := byID[id]
		if !ok {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return err
		}
		tpl.Rule.Exceptions = append(tpl.Rule.Exceptions, d)
	}
	return rows.Err()
}

func replaceExceptions(ctx context.Context, tx *sql.Tx, tpl model.Template) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM template_exceptions WHERE template_id = ?`, tpl.Event.ID); err != nil {
		return err
	}
	if tpl.Rule == nil {
		return nil
	}
	for _, ex := range tpl.Rule.Exceptions {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO template_exceptions (template_id, exception_date) VALUES (?, ?)`,
			tpl.Event.ID, ex.String(),
		); err != nil {
			return err
		}
	}
	return nil
}

func validateTemplate(in model.Template) error {
	if err := in.Event.Validate(); err != nil {
		return err
	}
	if err := in.Event.Timed().Validate(); err != nil {
		return err
	}
	if in.Rule != nil {
		return in.Rule.Validate()
	}
	return nil
}

func ruleColumns(rule *model.RecurrenceRule) (kind, interval, end any) {
	if rule == nil {
		return nil, nil, nil
	}
	return string(rule.Kind), rule.Interval, nullDate(rule.EndDate)
}

func nullDate(v mo.Option[model.Date]) any {
	d, ok := v.Get()
	if !ok {
		return nil
	}
	return d.String()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableDate(v sql.NullString) (mo.Option[model.Date], error) {
	if !v.Valid || v.String == "" {
		return mo.None[model.Date](), nil
	}
	d, err := model.ParseDate(v.String)
	if err != nil {
		return mo.None[model.Date](), err
	}
	return mo.Some(d), nil
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			sql += " LIMIT -1"
		}
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (model.Template, error) {
	var out model.Template
	var date string
	var start, end int
	var kind sql.NullString
	var interval sql.NullInt64
	var endDate sql.NullString
	if err := s.Scan(&out.Event.ID, &out.Event.Title, &date, &start, &end, &out.Event.Location, &kind, &interval, &endDate); err != nil {
		return model.Template{}, err
	}
	base, err := model.ParseDate(date)
	if err != nil {
		return model.Template{}, err
	}
	out.Event.Date = base
	out.Event.Start = model.Clock(start)
	out.Event.End = model.Clock(end)
	if kind.Valid {
		until, err := parseNullableDate(endDate)
		if err != nil {
			return model.Template{}, err
		}
		out.Rule = &model.RecurrenceRule{
			Kind:     model.RecurrenceKind(kind.String),
			Interval: int(interval.Int64),
			EndDate:  until,
		}
	}
	return out, nil
}

func scanFixedEvent(s scanner) (model.DatedEvent, error) {
	var out model.DatedEvent
	var date string
	var start, end int
	if err := s.Scan(&out.ID, &out.Title, &date, &start, &end); err != nil {
		return model.DatedEvent{}, err
	}
	d, err := model.ParseDate(date)
	if err != nil {
		return model.DatedEvent{}, err
	}
	out.Date = d
	out.Start = model.Clock(start)
	out.End = model.Clock(end)
	return out, nil
}

func scanWorkItem(s scanner) (model.WorkItem, error) {
	var out model.WorkItem
	var priority string
	var deadline sql.NullString
	if err := s.Scan(&out.ID, &out.Title, &out.DurationMinutes, &priority, &deadline); err != nil {
		return model.WorkItem{}, err
	}
	due, err := parseNullableDate(deadline)
	if err != nil {
		return model.WorkItem{}, err
	}
	out.Priority = model.Priority(priority)
	out.Deadline = due
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
