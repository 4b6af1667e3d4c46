package quest

import (
	"errors"
	"fmt"
	"iter"
)

// ErrOutOfRange is returned when an event names a goal index that does not
// exist in the ledger.
var ErrOutOfRange = errors.New("goal index out of range")

// Ledger is the ordered set of goals plus the running score. Goals are
// only ever appended.
type Ledger struct {
	goals []Goal
	score int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Restore builds a ledger from previously persisted state.
func Restore(score int, goals []Goal) *Ledger {
	l := &Ledger{score: score, goals: make([]Goal, len(goals))}
	copy(l.goals, goals)
	return l
}

// View is a read-only copy of a goal's state at the time it was taken.
type View struct {
	Index       int
	Kind        Kind
	Name        string
	Description string
	Points      int
	Complete    bool
	Progress    Progress
}

func viewOf(i int, g Goal) View {
	return View{
		Index:       i,
		Kind:        g.Kind(),
		Name:        g.Name(),
		Description: g.Description(),
		Points:      g.Points(),
		Complete:    g.IsComplete(),
		Progress:    g.Progress(),
	}
}

// AddGoal appends g. Names are not required to be unique.
func (l *Ledger) AddGoal(g Goal) {
	l.goals = append(l.goals, g)
}

// Len returns the number of goals.
func (l *Ledger) Len() int {
	return len(l.goals)
}

// Score returns the accumulated score.
func (l *Ledger) Score() int {
	return l.score
}

// Goals yields (index, view) pairs in insertion order. The sequence can be
// ranged over any number of times.
func (l *Ledger) Goals() iter.Seq2[int, View] {
	return func(yield func(int, View) bool) {
		for i, g := range l.goals {
			if !yield(i, viewOf(i, g)) {
				return
			}
		}
	}
}

// Goal returns a view of the goal at index i.
func (l *Ledger) Goal(i int) (View, error) {
	if i < 0 || i >= len(l.goals) {
		return View{}, fmt.Errorf("%w: %d (have %d goals)", ErrOutOfRange, i, len(l.goals))
	}
	return viewOf(i, l.goals[i]), nil
}

// RecordEvent records a completion against the goal at index i and adds
// the earned points to the score. A rejected completion earns 0 and is not
// an error.
func (l *Ledger) RecordEvent(i int) (Completion, error) {
	if i < 0 || i >= len(l.goals) {
		return Completion{}, fmt.Errorf("%w: %d (have %d goals)", ErrOutOfRange, i, len(l.goals))
	}
	c := l.goals[i].RecordCompletion()
	l.score += c.Points
	return c, nil
}

// Each calls fn for every goal in order. It exists for encoders that need
// variant-specific state; fn must not mutate the goal.
func (l *Ledger) Each(fn func(i int, g Goal) error) error {
	for i, g := range l.goals {
		if err := fn(i, g); err != nil {
			return err
		}
	}
	return nil
}
