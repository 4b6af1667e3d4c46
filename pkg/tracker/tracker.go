// Package tracker is the entry point used by the CLI and the TUI. It owns
// the current ledger, persists it through pkg/store and mirrors every
// completion event into an optional journal.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/stefanpenner/quest/pkg/journal"
	"github.com/stefanpenner/quest/pkg/logging"
	"github.com/stefanpenner/quest/pkg/quest"
	"github.com/stefanpenner/quest/pkg/store"
)

// Recorder receives every recorded event. *journal.Journal implements it.
type Recorder interface {
	Append(ctx context.Context, v quest.View, c quest.Completion) (journal.Event, error)
}

// GoalSpec describes a goal to add. Target and Bonus only apply to
// checklist goals.
type GoalSpec struct {
	Kind        quest.Kind
	Name        string
	Description string
	Points      int
	Target      int
	Bonus       int
}

// Entry is one line of ListGoals output.
type Entry struct {
	DisplayIndex int // 1-based
	Kind         quest.Kind
	Name         string
	Description  string
	Points       int
	ProgressText string
	Progress     quest.Progress
	Complete     bool
}

// Result is the outcome of RecordEvent.
type Result struct {
	quest.Completion
	Goal quest.View // state after the event
}

// ErrDamaged is returned by Save when the default progress file could not
// be read at Open and has not been replaced since.
var ErrDamaged = errors.New("progress file is damaged")

// Tracker wraps a ledger with persistence and event journaling.
type Tracker struct {
	ledger   *quest.Ledger
	path     string
	recorder Recorder
	log      *logging.Logger

	// fingerprint of the default file as last saved or loaded
	fingerprint string
	// set when the default file failed to decode at Open
	damaged error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRecorder mirrors recorded events into r.
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// New returns a tracker with an empty ledger. path is the default target
// for Save and Load.
func New(path string, opts ...Option) *Tracker {
	t := &Tracker{ledger: quest.NewLedger(), path: path, log: logging.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Open returns a tracker for path, loading it if it exists. When it does
// not and seed is set, the ledger starts with StarterGoals.
//
// A file that exists but cannot be decoded is not fatal: the tracker starts
// empty and Damaged reports the error. Save to the default path then fails
// with ErrDamaged until a successful Load replaces the ledger, so the
// unreadable file is never overwritten by accident.
func Open(path string, seed bool, opts ...Option) (*Tracker, error) {
	t := New(path, opts...)
	err := t.Load("")
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, store.ErrNotFound):
		if seed {
			t.Seed()
		}
		return t, nil
	case errors.Is(err, store.ErrFormat):
		t.damaged = err
		return t, nil
	default:
		return nil, err
	}
}

// Damaged returns the decode error of the default progress file when it
// could not be read at Open, or nil.
func (t *Tracker) Damaged() error {
	return t.damaged
}

// Path returns the default progress file path.
func (t *Tracker) Path() string {
	return t.path
}

// AddGoal appends a new goal built from spec.
func (t *Tracker) AddGoal(spec GoalSpec) (quest.View, error) {
	g, err := quest.NewGoal(spec.Kind, spec.Name, spec.Description, spec.Points, spec.Target, spec.Bonus)
	if err != nil {
		return quest.View{}, fmt.Errorf("adding goal %q: %w", spec.Name, err)
	}
	t.ledger.AddGoal(g)
	t.log.Debug("goal added", "kind", string(spec.Kind), "name", spec.Name, "points", spec.Points)
	return t.ledger.Goal(t.ledger.Len() - 1)
}

// RecordEvent records a completion against the goal at the 0-based index.
// A configured recorder failing is logged, not returned, since the points
// have already been applied.
func (t *Tracker) RecordEvent(ctx context.Context, index int) (Result, error) {
	c, err := t.ledger.RecordEvent(index)
	if err != nil {
		return Result{}, err
	}
	v, err := t.ledger.Goal(index)
	if err != nil {
		return Result{}, err
	}

	log := t.log.With("goal", v.Name)
	log.Debug("event recorded", "points", c.Points, "accepted", c.Accepted, "score", t.ledger.Score())
	if c.Milestone != nil {
		log.Info("streak milestone", "streak", c.Milestone.Streak)
	}

	if t.recorder != nil {
		if _, err := t.recorder.Append(ctx, v, c); err != nil {
			log.Warn("journal append failed", "error", err)
		}
	}
	return Result{Completion: c, Goal: v}, nil
}

// Goals yields the ledger's goals in order.
func (t *Tracker) Goals() iter.Seq2[int, quest.View] {
	return t.ledger.Goals()
}

// Len returns the number of goals.
func (t *Tracker) Len() int {
	return t.ledger.Len()
}

// ListGoals returns every goal with its display index and progress text.
func (t *Tracker) ListGoals() []Entry {
	entries := make([]Entry, 0, t.ledger.Len())
	for i, v := range t.ledger.Goals() {
		entries = append(entries, Entry{
			DisplayIndex: i + 1,
			Kind:         v.Kind,
			Name:         v.Name,
			Description:  v.Description,
			Points:       v.Points,
			ProgressText: v.Progress.String(),
			Progress:     v.Progress,
			Complete:     v.Complete,
		})
	}
	return entries
}

// Score returns the ledger's total score.
func (t *Tracker) Score() int {
	return t.ledger.Score()
}

// Save writes the ledger to path, or to the default path when empty.
func (t *Tracker) Save(path string) error {
	if path == "" {
		path = t.path
	}
	if path == t.path && t.damaged != nil {
		return fmt.Errorf("%w: not overwriting %s, restore it with load (%v)", ErrDamaged, path, t.damaged)
	}
	if err := store.Save(path, t.ledger); err != nil {
		t.log.Warn("save failed", "path", path, "error", err)
		return err
	}
	if path == t.path {
		t.remember()
	}
	t.log.Debug("saved", "path", path, "goals", t.ledger.Len(), "score", t.ledger.Score())
	return nil
}

// Load replaces the ledger with the one stored at path (default path when
// empty). On any error the current ledger is kept as it was.
func (t *Tracker) Load(path string) error {
	if path == "" {
		path = t.path
	}
	l, err := store.Load(path)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.log.Warn("load failed", "path", path, "error", err)
		}
		return err
	}
	t.ledger = l
	t.damaged = nil
	if path == t.path {
		t.remember()
	}
	t.log.Debug("loaded", "path", path, "goals", l.Len(), "score", l.Score())
	return nil
}

// Reload re-reads the default progress file unless it still holds what this
// tracker last saved or loaded. It reports whether the ledger was replaced.
func (t *Tracker) Reload() (bool, error) {
	fp, err := store.Fingerprint(t.path)
	if err == nil && fp == t.fingerprint {
		return false, nil
	}
	if err := t.Load(""); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Tracker) remember() {
	fp, err := store.Fingerprint(t.path)
	if err != nil {
		t.log.Debug("fingerprint failed", "path", t.path, "error", err)
		fp = ""
	}
	t.fingerprint = fp
}

// Seed appends StarterGoals to the ledger.
func (t *Tracker) Seed() {
	for _, spec := range StarterGoals() {
		// Starter specs are known to be valid.
		if _, err := t.AddGoal(spec); err != nil {
			t.log.Error("seeding starter goal", "name", spec.Name, "error", err)
		}
	}
}

// StarterGoals is the set of goals a new quest begins with.
func StarterGoals() []GoalSpec {
	return []GoalSpec{
		{Kind: quest.KindSimple, Name: "Complete a Book", Description: "Finish reading a book for self-improvement.", Points: 100},
		{Kind: quest.KindEternal, Name: "Daily Meditation", Description: "Spend time meditating every day.", Points: 10},
		{Kind: quest.KindEternal, Name: "Exercise", Description: "Exercise daily to maintain health.", Points: 20},
		{Kind: quest.KindChecklist, Name: "Weekly Volunteering", Description: "Volunteer at the local shelter weekly", Points: 15, Target: 4, Bonus: 50},
		{Kind: quest.KindChecklist, Name: "Workout Routine", Description: "Exercise regularly", Points: 20, Target: 7, Bonus: 50},
	}
}

// KindFromName accepts a persisted tag ("EternalGoal") or its short form
// ("eternal"), case-insensitively.
func KindFromName(s string) (quest.Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "goal")
	switch s {
	case "simple":
		return quest.KindSimple, nil
	case "eternal":
		return quest.KindEternal, nil
	case "checklist":
		return quest.KindChecklist, nil
	}
	return "", fmt.Errorf("%w: %q (use simple, eternal or checklist)", quest.ErrUnknownKind, s)
}
