package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"

	"github.com/stefanpenner/quest/pkg/quest"
	"github.com/stefanpenner/quest/pkg/tracker"
)

// goalDraft holds the add-goal form's values. It lives on the heap so the
// form's bound pointers survive copies of Model.
type goalDraft struct {
	kind        string
	name        string
	description string
	points      string
	target      string
	bonus       string
}

func newGoalDraft() *goalDraft {
	return &goalDraft{kind: string(quest.KindSimple), target: "5", bonus: "50"}
}

// spec converts the draft into a GoalSpec. The form validators have already
// run, so errors here only surface for drafts built outside the form.
func (d *goalDraft) spec() (tracker.GoalSpec, error) {
	kind, err := quest.ParseKind(d.kind)
	if err != nil {
		return tracker.GoalSpec{}, err
	}
	s := tracker.GoalSpec{
		Kind:        kind,
		Name:        strings.TrimSpace(d.name),
		Description: strings.TrimSpace(d.description),
	}
	if s.Points, err = parseInt("Points", d.points); err != nil {
		return tracker.GoalSpec{}, err
	}
	if kind == quest.KindChecklist {
		if s.Target, err = parseInt("Target", d.target); err != nil {
			return tracker.GoalSpec{}, err
		}
		if s.Bonus, err = parseInt("Bonus", d.bonus); err != nil {
			return tracker.GoalSpec{}, err
		}
	}
	return s, nil
}

func newGoalForm(d *goalDraft, width int) *huh.Form {
	keys := huh.NewDefaultKeyMap()
	keys.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel"))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Kind").
				Options(
					huh.NewOption("Simple - completes once", string(quest.KindSimple)),
					huh.NewOption("Eternal - never completes, builds a streak", string(quest.KindEternal)),
					huh.NewOption("Checklist - completes after N events, pays a bonus", string(quest.KindChecklist)),
				).
				Value(&d.kind),
			huh.NewInput().
				Title("Name").
				Placeholder("Daily Meditation").
				Value(&d.name).
				Validate(validateField("Name")),
			huh.NewInput().
				Title("Description").
				Placeholder("Spend time meditating every day.").
				Value(&d.description).
				Validate(validateField("Description")),
			huh.NewInput().
				Title("Points").
				Description("Awarded for each event").
				Placeholder("10").
				Value(&d.points).
				Validate(validateInt("Points")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Target").
				Description("Events needed to complete the goal").
				Value(&d.target).
				Validate(validatePositive("Target")),
			huh.NewInput().
				Title("Bonus").
				Description("Extra points on the completing event").
				Value(&d.bonus).
				Validate(validateInt("Bonus")),
		).WithHideFunc(func() bool { return d.kind != string(quest.KindChecklist) }),
	).
		WithWidth(width).
		WithShowHelp(true).
		WithKeyMap(keys)
}

// validateField rejects empty values and characters the progress file
// cannot hold.
func validateField(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		if strings.ContainsAny(s, "|\r\n") {
			return fmt.Errorf("%s cannot contain '|'", name)
		}
		return nil
	}
}

func validateInt(name string) func(string) error {
	return func(s string) error {
		_, err := parseInt(name, s)
		return err
	}
}

func validatePositive(name string) func(string) error {
	return func(s string) error {
		n, err := parseInt(name, s)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("%s must be at least 1", name)
		}
		return nil
	}
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return n, nil
}
