package quest

import "fmt"

// Progress is a rendering-agnostic summary of a goal's state.
type Progress struct {
	Kind     Kind
	Complete bool
	Streak   int // eternal only
	Current  int // checklist only
	Target   int // checklist only
}

// Fraction returns Current/Target for checklist goals and 0 or 1 for
// simple goals. Eternal goals report 0.
func (p Progress) Fraction() float64 {
	switch p.Kind {
	case KindChecklist:
		if p.Target == 0 {
			return 0
		}
		return float64(p.Current) / float64(p.Target)
	case KindSimple:
		if p.Complete {
			return 1
		}
	}
	return 0
}

func (p Progress) String() string {
	switch p.Kind {
	case KindEternal:
		return fmt.Sprintf("streak %d", p.Streak)
	case KindChecklist:
		return fmt.Sprintf("%d/%d", p.Current, p.Target)
	default:
		if p.Complete {
			return "[X]"
		}
		return "[ ]"
	}
}
