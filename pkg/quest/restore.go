package quest

import "fmt"

// RestoreSimpleGoal rebuilds a simple goal in a known state.
func RestoreSimpleGoal(name, description string, points int, complete bool) *SimpleGoal {
	g := NewSimpleGoal(name, description, points)
	g.complete = complete
	return g
}

// RestoreEternalGoal rebuilds an eternal goal with an existing streak.
func RestoreEternalGoal(name, description string, points, streak int) (*EternalGoal, error) {
	if streak < 0 {
		return nil, fmt.Errorf("%w: negative streak %d", ErrInvalidGoal, streak)
	}
	g := NewEternalGoal(name, description, points)
	g.streak = streak
	return g, nil
}

// RestoreChecklistGoal rebuilds a checklist goal with current completions
// already recorded. current must lie in [0, target].
func RestoreChecklistGoal(name, description string, points, target, current, bonus int) (*ChecklistGoal, error) {
	g, err := NewChecklistGoal(name, description, points, target, bonus)
	if err != nil {
		return nil, err
	}
	if current < 0 || current > target {
		return nil, fmt.Errorf("%w: checklist progress %d outside [0, %d]", ErrInvalidGoal, current, target)
	}
	g.current = current
	return g, nil
}
