package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stefanpenner/quest/pkg/config"
	"github.com/stefanpenner/quest/pkg/journal"
	"github.com/stefanpenner/quest/pkg/quest"
	"github.com/stefanpenner/quest/pkg/store"
	gsync "github.com/stefanpenner/quest/pkg/sync"
	"github.com/stefanpenner/quest/pkg/tracker"
)

type goalJSON struct {
	Index       int    `json:"index"`
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Complete    bool   `json:"complete"`
	Progress    string `json:"progress"`
	Streak      int    `json:"streak,omitempty"`
	Current     int    `json:"current,omitempty"`
	Target      int    `json:"target,omitempty"`
}

func toGoalJSON(e tracker.Entry) goalJSON {
	return goalJSON{
		Index:       e.DisplayIndex,
		Kind:        string(e.Kind),
		Name:        e.Name,
		Description: e.Description,
		Points:      e.Points,
		Complete:    e.Complete,
		Progress:    e.ProgressText,
		Streak:      e.Progress.Streak,
		Current:     e.Progress.Current,
		Target:      e.Progress.Target,
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			entries := a.tracker.ListGoals()
			if a.jsonOutput {
				goals := make([]goalJSON, 0, len(entries))
				for _, e := range entries {
					goals = append(goals, toGoalJSON(e))
				}
				return a.printJSON(map[string]interface{}{"score": a.tracker.Score(), "goals": goals})
			}

			if len(entries) == 0 {
				fmt.Fprintln(a.out, "No goals yet. Add one with 'quest add'.")
			}
			for _, e := range entries {
				fmt.Fprintln(a.out, tracker.DisplayLine(e))
			}
			fmt.Fprintf(a.out, "\nScore: %d\n", a.tracker.Score())
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var target, bonus int

	cmd := &cobra.Command{
		Use:   "add <simple|eternal|checklist> <name> <description> <points>",
		Short: "Add a goal",
		Example: `  quest add simple "Complete a Book" "Finish reading a book" 100
  quest add eternal "Daily Meditation" "Meditate every day" 10
  quest add checklist "Workout Routine" "Exercise regularly" 20 --target 7 --bonus 50`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := tracker.KindFromName(args[0])
			if err != nil {
				return err
			}
			points, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("points must be a whole number, got %q", args[3])
			}
			spec := tracker.GoalSpec{Kind: kind, Name: args[1], Description: args[2], Points: points}
			if kind == quest.KindChecklist {
				spec.Target, spec.Bonus = target, bonus
			}

			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			v, err := a.tracker.AddGoal(spec)
			if err != nil {
				return err
			}
			if err := a.tracker.Save(""); err != nil {
				return err
			}

			if a.jsonOutput {
				return a.printJSON(toGoalJSON(a.tracker.ListGoals()[v.Index]))
			}
			fmt.Fprintf(a.out, "Added goal %d: %s\n", v.Index+1, v.Name)
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "target", 5, "checklist: events needed to complete")
	cmd.Flags().IntVar(&bonus, "bonus", 50, "checklist: bonus paid on completion")
	return cmd
}

func newRecordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <goal-number>",
		Short: "Record an event for a goal (numbers as shown by 'quest list')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("goal number must be a whole number, got %q", args[0])
			}

			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			res, err := a.tracker.RecordEvent(cmd.Context(), n-1)
			if errors.Is(err, quest.ErrOutOfRange) {
				return fmt.Errorf("no goal %d (have %d)", n, a.tracker.Len())
			}
			if err != nil {
				return err
			}
			if err := a.tracker.Save(""); err != nil {
				return err
			}

			if a.jsonOutput {
				out := map[string]interface{}{
					"goal":     res.Goal.Name,
					"points":   res.Points,
					"accepted": res.Accepted,
					"finished": res.Finished,
					"bonus":    res.Bonus,
					"score":    a.tracker.Score(),
				}
				if res.Milestone != nil {
					out["streak_milestone"] = res.Milestone.Streak
				}
				return a.printJSON(out)
			}
			fmt.Fprintln(a.out, tracker.Announce(res))
			fmt.Fprintf(a.out, "You now have %d points.\n", a.tracker.Score())
			return nil
		},
	}
}

func newScoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "score",
		Short: "Show the total score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			if a.jsonOutput {
				return a.printJSON(map[string]int{"score": a.tracker.Score()})
			}
			fmt.Fprintf(a.out, "You have %d points.\n", a.tracker.Score())
			return nil
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <path>",
		Short: "Write the current goals and score to another file",
		Long:  "Write the current goals and score to path. A .yaml or .yml extension keeps streaks and checklist progress.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			if err := a.tracker.Save(args[0]); err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(map[string]interface{}{"saved": args[0], "goals": a.tracker.Len(), "score": a.tracker.Score()})
			}
			fmt.Fprintf(a.out, "Saved %d goals to %s\n", a.tracker.Len(), args[0])
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Replace the current goals and score with those in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			if err := a.tracker.Load(args[0]); err != nil {
				return err
			}
			if err := a.tracker.Save(""); err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(map[string]interface{}{"loaded": args[0], "goals": a.tracker.Len(), "score": a.tracker.Score()})
			}
			fmt.Fprintf(a.out, "Loaded %d goals from %s (score %d)\n", a.tracker.Len(), args[0], a.tracker.Score())
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var goal string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded events from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			if a.journal == nil {
				return errors.New("the journal is disabled (set journal.enabled in config.yaml)")
			}
			events, err := a.journal.Events(cmd.Context(), journal.Filter{GoalName: goal, Limit: limit})
			if err != nil {
				return err
			}

			if a.jsonOutput {
				if events == nil {
					events = []journal.Event{}
				}
				return a.printJSON(events)
			}
			if len(events) == 0 {
				fmt.Fprintln(a.out, "No events recorded yet.")
				return nil
			}
			for _, ev := range events {
				fmt.Fprintln(a.out, formatEvent(ev))
			}
			if goal == "" {
				total, err := a.journal.Total(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "\n%d points recorded in the journal, score is %d\n", total, a.tracker.Score())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&goal, "goal", "", "only show events for this goal name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many recent events (0 for all)")
	return cmd
}

func formatEvent(ev journal.Event) string {
	line := fmt.Sprintf("%s  %-24s %+5d", ev.RecordedAt.Local().Format("2006-01-02 15:04"), ev.GoalName, ev.Points)
	switch {
	case !ev.Accepted:
		line += "  (already complete)"
	case ev.Milestone > 0:
		line += fmt.Sprintf("  %d-day streak!", ev.Milestone)
	case ev.Finished && ev.Bonus != 0:
		line += fmt.Sprintf("  completed, %d bonus", ev.Bonus)
	case ev.Finished:
		line += "  completed"
	}
	return line
}

func newInitCmd(a *app) *cobra.Command {
	var seed, git bool
	var remote string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directory, config and progress file",
		Long: `Creates the data directory with a default config.yaml and an empty
progress file. --seed starts the ledger with a set of starter goals.
--git (or --remote) also makes the directory a git repository for
'quest sync'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}

			if _, err := os.Stat(config.Path(a.dataDir)); errors.Is(err, os.ErrNotExist) {
				cfg := config.Default()
				cfg.ProgressFile = a.cfg.ProgressFile
				cfg.SeedStarterGoals = seed
				if err := config.Save(a.dataDir, cfg); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Wrote %s\n", config.Path(a.dataDir))
			}

			s, err := store.NewStore(a.dataDir, a.cfg.ProgressFile)
			if err != nil {
				return err
			}
			if s.Exists() {
				fmt.Fprintf(a.out, "Progress file %s already exists\n", s.ProgressPath())
			} else {
				t := tracker.New(s.ProgressPath(), tracker.WithLogger(a.log))
				if seed {
					t.Seed()
				}
				if err := t.Save(""); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created %s with %d goals\n", s.ProgressPath(), t.Len())
			}

			if git || remote != "" {
				return gsync.InitRepo(cmd.Context(), a.dataDir, remote, a.out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "start with the starter goals")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository in the data directory")
	cmd.Flags().StringVar(&remote, "remote", "", "git remote URL for sync (implies --git)")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Commit progress and sync the data directory with its git remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return gsync.SyncRepo(cmd.Context(), a.dataDir, a.out)
		},
	}
}
