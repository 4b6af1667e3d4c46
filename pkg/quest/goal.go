package quest

import (
	"errors"
	"fmt"
)

// Kind identifies a goal variant. The string values are the tags written
// to the progress file.
type Kind string

const (
	KindSimple    Kind = "SimpleGoal"
	KindEternal   Kind = "EternalGoal"
	KindChecklist Kind = "ChecklistGoal"
)

// StreakInterval is the number of eternal events between streak milestones.
const StreakInterval = 7

var (
	ErrUnknownKind = errors.New("unknown goal kind")
	ErrInvalidGoal = errors.New("invalid goal")
)

// ParseKind maps a tag to its Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSimple, KindEternal, KindChecklist:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Goal is a unit of trackable progress. The set of implementations is
// closed: SimpleGoal, EternalGoal and ChecklistGoal.
type Goal interface {
	Kind() Kind
	Name() string
	Description() string
	Points() int
	IsComplete() bool

	// RecordCompletion applies one completion event and reports the points
	// it earned. A rejected event returns a zero Completion.
	RecordCompletion() Completion
	Progress() Progress

	sealed()
}

// Milestone is raised when an eternal goal's streak reaches a multiple of
// StreakInterval. It carries no points.
type Milestone struct {
	Streak int
}

// Completion is the outcome of a single RecordCompletion call.
type Completion struct {
	Points    int
	Accepted  bool
	Finished  bool // this event made the goal complete
	Bonus     int  // portion of Points that came from a checklist bonus
	Milestone *Milestone
}

type base struct {
	name        string
	description string
	points      int
}

func (b *base) Name() string        { return b.name }
func (b *base) Description() string { return b.description }
func (b *base) Points() int         { return b.points }

// SimpleGoal can be completed exactly once.
type SimpleGoal struct {
	base
	complete bool
}

func NewSimpleGoal(name, description string, points int) *SimpleGoal {
	return &SimpleGoal{base: base{name: name, description: description, points: points}}
}

func (g *SimpleGoal) Kind() Kind       { return KindSimple }
func (g *SimpleGoal) IsComplete() bool { return g.complete }
func (g *SimpleGoal) sealed()          {}

func (g *SimpleGoal) RecordCompletion() Completion {
	if g.complete {
		return Completion{}
	}
	g.complete = true
	return Completion{Points: g.points, Accepted: true, Finished: true}
}

func (g *SimpleGoal) Progress() Progress {
	return Progress{Kind: KindSimple, Complete: g.complete}
}

// EternalGoal has no terminal state; every event extends its streak.
type EternalGoal struct {
	base
	streak int
}

func NewEternalGoal(name, description string, points int) *EternalGoal {
	return &EternalGoal{base: base{name: name, description: description, points: points}}
}

func (g *EternalGoal) Kind() Kind       { return KindEternal }
func (g *EternalGoal) IsComplete() bool { return false }
func (g *EternalGoal) Streak() int      { return g.streak }
func (g *EternalGoal) sealed()          {}

func (g *EternalGoal) RecordCompletion() Completion {
	g.streak++
	c := Completion{Points: g.points, Accepted: true}
	if g.streak%StreakInterval == 0 {
		c.Milestone = &Milestone{Streak: g.streak}
	}
	return c
}

func (g *EternalGoal) Progress() Progress {
	return Progress{Kind: KindEternal, Streak: g.streak}
}

// ChecklistGoal completes after Target events and pays Bonus once, on the
// event that reaches Target.
type ChecklistGoal struct {
	base
	target  int
	current int
	bonus   int
}

// NewChecklistGoal returns ErrInvalidGoal when target is not positive.
func NewChecklistGoal(name, description string, points, target, bonus int) (*ChecklistGoal, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: checklist target must be positive, got %d", ErrInvalidGoal, target)
	}
	return &ChecklistGoal{
		base:   base{name: name, description: description, points: points},
		target: target,
		bonus:  bonus,
	}, nil
}

func (g *ChecklistGoal) Kind() Kind       { return KindChecklist }
func (g *ChecklistGoal) IsComplete() bool { return g.current == g.target }
func (g *ChecklistGoal) Target() int      { return g.target }
func (g *ChecklistGoal) Current() int     { return g.current }
func (g *ChecklistGoal) Bonus() int       { return g.bonus }
func (g *ChecklistGoal) sealed()          {}

func (g *ChecklistGoal) RecordCompletion() Completion {
	if g.current == g.target {
		return Completion{}
	}
	g.current++
	c := Completion{Points: g.points, Accepted: true}
	if g.current == g.target {
		c.Finished = true
		c.Bonus = g.bonus
		c.Points += g.bonus
	}
	return c
}

func (g *ChecklistGoal) Progress() Progress {
	return Progress{Kind: KindChecklist, Complete: g.IsComplete(), Current: g.current, Target: g.target}
}

// NewGoal builds a fresh goal of the given kind. target and bonus are only
// read for checklist goals.
func NewGoal(kind Kind, name, description string, points, target, bonus int) (Goal, error) {
	switch kind {
	case KindSimple:
		return NewSimpleGoal(name, description, points), nil
	case KindEternal:
		return NewEternalGoal(name, description, points), nil
	case KindChecklist:
		return NewChecklistGoal(name, description, points, target, bonus)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
}
