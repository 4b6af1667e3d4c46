// Package journal keeps an append-only history of completion events in a
// local SQLite database. The progress file only stores the resulting
// state; the journal stores how the score got there.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/stefanpenner/quest/pkg/quest"
)

// Event is one recorded completion.
type Event struct {
	ID         string     `db:"id" json:"id"`
	Seq        int64      `db:"seq" json:"seq"`
	GoalIndex  int        `db:"goal_index" json:"goal_index"`
	GoalName   string     `db:"goal_name" json:"goal_name"`
	GoalKind   quest.Kind `db:"goal_kind" json:"goal_kind"`
	Points     int        `db:"points" json:"points"`
	Bonus      int        `db:"bonus" json:"bonus,omitempty"`
	Accepted   bool       `db:"accepted" json:"accepted"`
	Finished   bool       `db:"finished" json:"finished,omitempty"`
	Milestone  int        `db:"milestone" json:"milestone,omitempty"` // streak reached, 0 when none
	RecordedAt time.Time  `db:"recorded_at" json:"recorded_at"`
}

// Filter narrows Events. Zero values mean no restriction.
type Filter struct {
	GoalName string
	Limit    int
}

// Journal is the SQLite-backed event history.
type Journal struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens (or creates) the journal database at path and applies any
// pending migrations. ":memory:" gives a throwaway journal.
func Open(path string) (*Journal, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, now: time.Now}
	if err := j.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running journal migrations: %w", err)
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := j.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := j.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := j.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// Append records the outcome of an event against goal v.
func (j *Journal) Append(ctx context.Context, v quest.View, c quest.Completion) (Event, error) {
	ev := Event{
		ID:         uuid.New().String(),
		GoalIndex:  v.Index,
		GoalName:   v.Name,
		GoalKind:   v.Kind,
		Points:     c.Points,
		Bonus:      c.Bonus,
		Accepted:   c.Accepted,
		Finished:   c.Finished,
		RecordedAt: j.now().UTC(),
	}
	if c.Milestone != nil {
		ev.Milestone = c.Milestone.Streak
	}

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return Event{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.GetContext(ctx, &ev.Seq, "SELECT COALESCE(MAX(seq), 0) + 1 FROM events"); err != nil {
		return Event{}, fmt.Errorf("allocating event sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO events (
			id, seq, goal_index, goal_name, goal_kind,
			points, bonus, accepted, finished, milestone, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Seq, ev.GoalIndex, ev.GoalName, string(ev.GoalKind),
		ev.Points, ev.Bonus, boolToInt(ev.Accepted), boolToInt(ev.Finished),
		ev.Milestone, ev.RecordedAt,
	)
	if err != nil {
		return Event{}, fmt.Errorf("inserting event for %s: %w", ev.GoalName, err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("committing event: %w", err)
	}
	return ev, nil
}

// Events returns recorded events, oldest first. With a Limit, the most
// recent Limit events are returned, still oldest first.
func (j *Journal) Events(ctx context.Context, f Filter) ([]Event, error) {
	query := "SELECT * FROM events"
	var args []interface{}
	if f.GoalName != "" {
		query += " WHERE goal_name = ?"
		args = append(args, f.GoalName)
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var events []Event
	if err := j.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	for i, k := 0, len(events)-1; i < k; i, k = i+1, k-1 {
		events[i], events[k] = events[k], events[i]
	}
	return events, nil
}

// Total returns the sum of points over every recorded event. For a
// journal that has seen every event of a ledger this equals its score.
func (j *Journal) Total(ctx context.Context) (int, error) {
	var total int
	if err := j.db.GetContext(ctx, &total, "SELECT COALESCE(SUM(points), 0) FROM events"); err != nil {
		return 0, fmt.Errorf("summing event points: %w", err)
	}
	return total, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
