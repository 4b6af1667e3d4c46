package main

import (
	"encoding/json"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/stefanpenner/quest/pkg/config"
	"github.com/stefanpenner/quest/pkg/journal"
	"github.com/stefanpenner/quest/pkg/logging"
	"github.com/stefanpenner/quest/pkg/store"
	"github.com/stefanpenner/quest/pkg/tracker"
	"github.com/stefanpenner/quest/pkg/tui"
)

// Version is set at build time via ldflags.
var Version = "dev"

// app carries global flags and the collaborators opened for a command.
type app struct {
	dir        string
	file       string
	jsonOutput bool
	verbose    bool

	out    io.Writer
	errOut io.Writer

	dataDir string
	cfg     *config.Config
	log     *logging.Logger
	journal *journal.Journal
	tracker *tracker.Tracker
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "quest",
		Short: "Track goals, streaks and checklists and earn points for them",
		Long: `quest keeps a ledger of personal goals and a running score.

Simple goals complete once, eternal goals never complete and build a
streak, checklist goals complete after a number of events and pay a
bonus. Run without arguments to open the interactive view.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}
	root.Version = Version
	root.SetVersionTemplate("quest version {{.Version}}\n")
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.dir, "dir", "", "data directory (default $QUEST_DIR or the OS data dir)")
	flags.StringVar(&a.file, "file", "", "progress file, relative to the data directory (.yaml keeps full detail)")
	flags.BoolVar(&a.jsonOutput, "json", false, "print JSON instead of text")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newRecordCmd(a),
		newScoreCmd(a),
		newSaveCmd(a),
		newLoadCmd(a),
		newHistoryCmd(a),
		newInitCmd(a),
		newSyncCmd(a),
	)
	return root
}

// setup resolves the data directory, loads the config and builds the
// logger. It does not touch the progress file.
func (a *app) setup() error {
	a.dataDir = store.ResolveDataDir(a.dir)

	cfg, err := config.Load(a.dataDir)
	if err != nil {
		return err
	}
	if a.file != "" {
		cfg.ProgressFile = a.file
	}
	a.cfg = cfg

	a.log = logging.New(a.errOut)
	a.log.SetLevel(cfg.Level())
	if a.verbose {
		a.log.SetLevel(logging.LevelDebug)
	}
	return nil
}

// open runs setup, opens the journal when enabled and loads the tracker.
func (a *app) open() error {
	if err := a.setup(); err != nil {
		return err
	}

	s, err := store.NewStore(a.dataDir, a.cfg.ProgressFile)
	if err != nil {
		return err
	}

	opts := []tracker.Option{tracker.WithLogger(a.log)}
	if a.cfg.Journal.Enabled {
		j, err := journal.Open(a.cfg.JournalPath())
		if err != nil {
			// progress tracking still works without history
			a.log.Warn("journal unavailable", "path", a.cfg.JournalPath(), "error", err)
		} else {
			a.journal = j
			opts = append(opts, tracker.WithRecorder(j))
		}
	}

	t, err := tracker.Open(s.ProgressPath(), a.cfg.SeedStarterGoals, opts...)
	if err != nil {
		a.close()
		return err
	}
	a.tracker = t
	return nil
}

func (a *app) close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("closing journal", "error", err)
		}
		a.journal = nil
	}
}

func (a *app) runTUI() error {
	if err := a.open(); err != nil {
		return err
	}
	defer a.close()

	var history tui.History
	if a.journal != nil {
		history = a.journal
	}
	// The TUI owns the terminal; keep log lines off it.
	a.log.SetOutput(io.Discard)

	p := tea.NewProgram(tui.NewModel(a.tracker, history, a.dataDir), tea.WithAltScreen())

	cleanup, err := tui.StartWatcher(a.tracker.Path(), p)
	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: file watcher failed: %v\n", err)
	} else {
		defer cleanup()
	}

	_, err = p.Run()
	return err
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
