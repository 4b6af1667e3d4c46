package store

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/stefanpenner/quest/pkg/quest"
)

// Snapshot is the YAML document written by YAMLCodec. Unlike the text
// format it keeps every variant field, so state round-trips exactly.
type Snapshot struct {
	Score int            `yaml:"score"`
	Goals []GoalSnapshot `yaml:"goals"`
}

// GoalSnapshot holds one goal. Fields that do not apply to a kind are
// omitted.
type GoalSnapshot struct {
	Kind        quest.Kind `yaml:"kind"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Points      int        `yaml:"points"`
	Complete    bool       `yaml:"complete,omitempty"`
	Streak      int        `yaml:"streak,omitempty"`
	Current     int        `yaml:"current,omitempty"`
	Target      int        `yaml:"target,omitempty"`
	Bonus       int        `yaml:"bonus,omitempty"`
}

// YAMLCodec reads and writes Snapshot documents.
type YAMLCodec struct{}

// TakeSnapshot captures the full state of l.
func TakeSnapshot(l *quest.Ledger) Snapshot {
	snap := Snapshot{Score: l.Score(), Goals: []GoalSnapshot{}}
	// the callback cannot fail, so Each cannot either
	_ = l.Each(func(_ int, g quest.Goal) error {
		gs := GoalSnapshot{
			Kind:        g.Kind(),
			Name:        g.Name(),
			Description: g.Description(),
			Points:      g.Points(),
			Complete:    g.IsComplete(),
		}
		switch v := g.(type) {
		case *quest.EternalGoal:
			gs.Streak = v.Streak()
		case *quest.ChecklistGoal:
			gs.Current = v.Current()
			gs.Target = v.Target()
			gs.Bonus = v.Bonus()
		}
		snap.Goals = append(snap.Goals, gs)
		return nil
	})
	return snap
}

// Ledger rebuilds the ledger described by the snapshot.
func (s Snapshot) Ledger() (*quest.Ledger, error) {
	goals := make([]quest.Goal, 0, len(s.Goals))
	for i, gs := range s.Goals {
		g, err := gs.goal()
		if err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("goal %d (%s): %v", i+1, gs.Name, err)}
		}
		goals = append(goals, g)
	}
	return quest.Restore(s.Score, goals), nil
}

func (gs GoalSnapshot) goal() (quest.Goal, error) {
	switch gs.Kind {
	case quest.KindSimple:
		return quest.RestoreSimpleGoal(gs.Name, gs.Description, gs.Points, gs.Complete), nil
	case quest.KindEternal:
		return quest.RestoreEternalGoal(gs.Name, gs.Description, gs.Points, gs.Streak)
	case quest.KindChecklist:
		g, err := quest.RestoreChecklistGoal(gs.Name, gs.Description, gs.Points, gs.Target, gs.Current, gs.Bonus)
		if err != nil {
			return nil, err
		}
		if g.IsComplete() != gs.Complete {
			return nil, fmt.Errorf("complete=%t disagrees with progress %d/%d", gs.Complete, gs.Current, gs.Target)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", quest.ErrUnknownKind, string(gs.Kind))
	}
}

func (YAMLCodec) Encode(w io.Writer, l *quest.Ledger) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(TakeSnapshot(l)); err != nil {
		return fmt.Errorf("serializing snapshot YAML: %w", err)
	}
	return enc.Close()
}

func (YAMLCodec) Decode(r io.Reader) (*quest.Ledger, error) {
	var snap Snapshot
	if err := yaml.NewDecoder(r).Decode(&snap); err != nil {
		if err == io.EOF {
			return nil, &FormatError{Reason: "empty snapshot"}
		}
		return nil, &FormatError{Reason: fmt.Sprintf("parsing snapshot YAML: %v", err)}
	}
	return snap.Ledger()
}
