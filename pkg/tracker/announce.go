package tracker

import (
	"fmt"
	"strings"

	"github.com/stefanpenner/quest/pkg/quest"
)

// Announce renders a one-line summary of a recorded event, e.g.
// "Daily Meditation: +10 points (7-day streak!)".
func Announce(r Result) string {
	if !r.Accepted {
		return fmt.Sprintf("%s is already complete, no points awarded", r.Goal.Name)
	}

	var extras []string
	if r.Bonus != 0 {
		extras = append(extras, fmt.Sprintf("includes %d bonus", r.Bonus))
	}
	if r.Finished {
		extras = append(extras, "goal complete!")
	}
	if r.Milestone != nil {
		extras = append(extras, fmt.Sprintf("%d-day streak!", r.Milestone.Streak))
	}

	msg := fmt.Sprintf("%s: %+d points", r.Goal.Name, r.Points)
	if len(extras) > 0 {
		msg += " (" + strings.Join(extras, ", ") + ")"
	}
	return msg
}

// DisplayLine renders an entry the way the list command prints it:
//
//	1. Complete a Book: Finish reading a book - [ ] Not Completed
//	4. Weekly Volunteering: Volunteer weekly - Completed 1/4 times
//	2. Daily Meditation: Meditate - Streak: 3
func DisplayLine(e Entry) string {
	var status string
	switch {
	case e.Kind == quest.KindChecklist:
		status = fmt.Sprintf("Completed %d/%d times", e.Progress.Current, e.Progress.Target)
		if e.Complete {
			status = "[X] " + status
		}
	case e.Kind == quest.KindEternal:
		status = fmt.Sprintf("Streak: %d", e.Progress.Streak)
	case e.Complete:
		status = "[X] Completed"
	default:
		status = "[ ] Not Completed"
	}
	return fmt.Sprintf("%d. %s: %s - %s", e.DisplayIndex, e.Name, e.Description, status)
}
