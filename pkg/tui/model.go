package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"

	"github.com/stefanpenner/quest/pkg/journal"
	"github.com/stefanpenner/quest/pkg/store"
	gsync "github.com/stefanpenner/quest/pkg/sync"
	"github.com/stefanpenner/quest/pkg/tracker"
)

// historyLimit caps the events shown in the detail pane.
const historyLimit = 10

// FileChangedMsg is sent when the file watcher detects changes.
type FileChangedMsg struct{}

// SyncDoneMsg is sent when git sync completes.
type SyncDoneMsg struct {
	Err error
}

// History supplies recent events for the detail pane.
// *journal.Journal implements it.
type History interface {
	Events(ctx context.Context, f journal.Filter) ([]journal.Event, error)
}

// Model is the Bubble Tea model for the quest TUI.
type Model struct {
	tracker *tracker.Tracker
	history History // nil when the journal is disabled
	dataDir string
	keys    KeyMap
	width   int
	height  int

	items        []ListItem
	cursor       int
	grouped      bool
	focusedPane  int // 0 = goals, 1 = details
	detailScroll int
	events       []journal.Event // recent events for the selected goal

	showHelpModal bool

	// Add-goal form
	form  *huh.Form
	draft *goalDraft

	// Search state
	isSearching bool
	searchInput textinput.Model
	searchQuery string

	// Status message
	statusMsg     string
	statusTimeout time.Time

	// Cached glamour renderer (expensive to create)
	glamourRenderer *glamour.TermRenderer
	glamourWidth    int
}

// NewModel creates a TUI model over t. history may be nil.
func NewModel(t *tracker.Tracker, history History, dataDir string) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 64

	m := Model{
		tracker:     t,
		history:     history,
		dataDir:     dataDir,
		keys:        DefaultKeyMap(),
		searchInput: ti,
	}
	m.rebuildItems()
	if err := t.Damaged(); err != nil {
		m.statusMsg = "Progress file unreadable, restore it with quest load: " + err.Error()
		m.statusTimeout = time.Now().Add(30 * time.Second)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.getGlamourRenderer(m.detailWidth() - 2)
		if m.form != nil {
			m.form = m.form.WithWidth(m.formWidth())
		}
		return m, tea.ClearScreen
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case FileChangedMsg:
		m.reloadIfChanged()
		return m, nil

	case SyncDoneMsg:
		if msg.Err != nil {
			m.setStatus("Sync failed: " + msg.Err.Error())
		} else {
			m.setStatus("Synced successfully")
			m.reloadIfChanged()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.isSearching {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.isSearching {
		return m.handleSearchInput(msg)
	}

	if m.showHelpModal {
		switch msg.String() {
		case "esc", "enter", "?", "q":
			m.showHelpModal = false
		}
		return m, nil
	}

	// An active filter is cleared by esc before anything else.
	if m.searchQuery != "" && msg.Type == tea.KeyEsc {
		m.clearSearch()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.focusedPane == 1 {
			if m.detailScroll > 0 {
				m.detailScroll--
			}
		} else {
			m.moveCursor(-1)
		}

	case key.Matches(msg, m.keys.Down):
		if m.focusedPane == 1 {
			m.detailScroll++
		} else {
			m.moveCursor(1)
		}

	case key.Matches(msg, m.keys.Top):
		m.setCursor(firstGoal(m.items, 0))

	case key.Matches(msg, m.keys.Bottom):
		m.setCursor(lastGoal(m.items, len(m.items)-1))

	case key.Matches(msg, m.keys.Tab):
		m.focusedPane = 1 - m.focusedPane

	case key.Matches(msg, m.keys.Record):
		m.recordSelected()

	case key.Matches(msg, m.keys.Add):
		m.draft = newGoalDraft()
		m.form = newGoalForm(m.draft, m.formWidth())
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Group):
		m.grouped = !m.grouped
		m.rebuildItems()
		if m.grouped {
			m.setStatus("Grouped by kind")
		} else {
			m.setStatus("Ledger order")
		}

	case key.Matches(msg, m.keys.Search):
		m.isSearching = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Save):
		if err := m.tracker.Save(""); err != nil {
			m.setStatus("Save error: " + err.Error())
		} else {
			m.setStatus("Saved")
		}

	case key.Matches(msg, m.keys.Reload):
		if m.reload() {
			m.setStatus("Reloaded")
		}

	case key.Matches(msg, m.keys.Sync):
		m.setStatus("Syncing...")
		return m, m.doSync()

	case key.Matches(msg, m.keys.Help):
		m.showHelpModal = true
	}

	return m, nil
}

func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.isSearching = false
		m.searchInput.Blur()
		m.clearSearch()
		return m, nil
	case tea.KeyEnter, tea.KeyDown:
		// keep the filter, return to navigation
		m.isSearching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if q := m.searchInput.Value(); q != m.searchQuery {
		m.searchQuery = q
		m.rebuildItems()
	}
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.addFromDraft()
		m.form = nil
		m.draft = nil
		return m, nil
	case huh.StateAborted:
		m.form = nil
		m.draft = nil
		m.setStatus("Add cancelled")
		return m, nil
	}
	return m, cmd
}

func (m *Model) addFromDraft() {
	spec, err := m.draft.spec()
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return
	}
	v, err := m.tracker.AddGoal(spec)
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return
	}
	if !m.persist() {
		return
	}
	m.rebuildItems()
	m.selectGoal(v.Index)
	m.setStatus("Added: " + v.Name)
}

func (m *Model) recordSelected() {
	item, ok := m.selected()
	if !ok {
		return
	}
	res, err := m.tracker.RecordEvent(context.Background(), item.Index)
	if err != nil {
		m.setStatus("Error: " + err.Error())
		return
	}
	if !m.persist() {
		return
	}
	m.rebuildItems()
	m.setStatus(tracker.Announce(res))
}

// persist saves the ledger to the progress file, reporting failures in the
// status line.
func (m *Model) persist() bool {
	if err := m.tracker.Save(""); err != nil {
		m.setStatus("Save error: " + err.Error())
		return false
	}
	return true
}

// reload re-reads the progress file. On failure the in-memory ledger stays
// as it was.
func (m *Model) reload() bool {
	if err := m.tracker.Load(""); err != nil {
		m.loadFailed(err)
		return false
	}
	m.rebuildItems()
	return true
}

// reloadIfChanged reloads only when the file no longer holds what the
// tracker itself last wrote or read.
func (m *Model) reloadIfChanged() {
	replaced, err := m.tracker.Reload()
	if err != nil {
		m.loadFailed(err)
		return
	}
	if replaced {
		m.rebuildItems()
	}
}

func (m *Model) loadFailed(err error) {
	if errors.Is(err, store.ErrNotFound) {
		m.setStatus("Progress file missing, keeping current goals")
	} else {
		m.setStatus("Load error: " + err.Error())
	}
}

// rebuildItems refreshes the list from the tracker, keeping the cursor on
// the same goal where possible.
func (m *Model) rebuildItems() {
	prev := -1
	if item, ok := m.selected(); ok {
		prev = item.Index
	}

	entries := m.tracker.ListGoals()
	if m.grouped {
		m.items = GroupByKind(entries)
	} else {
		m.items = BuildItems(entries)
	}
	m.items = FilterItems(m.items, m.searchQuery)

	if prev < 0 || !m.selectGoal(prev) {
		m.setCursor(firstGoal(m.items, 0))
	}
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.rebuildItems()
}

func (m *Model) selected() (ListItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return ListItem{}, false
	}
	item := m.items[m.cursor]
	if item.IsSectionHeader {
		return ListItem{}, false
	}
	return item, true
}

// selectGoal moves the cursor to the goal with the given ledger index.
func (m *Model) selectGoal(index int) bool {
	for i, item := range m.items {
		if !item.IsSectionHeader && item.Index == index {
			m.setCursor(i)
			return true
		}
	}
	return false
}

func (m *Model) moveCursor(delta int) {
	var next int
	if delta < 0 {
		next = lastGoal(m.items, m.cursor-1)
	} else {
		next = firstGoal(m.items, m.cursor+1)
	}
	if next >= 0 {
		m.setCursor(next)
	}
}

func (m *Model) setCursor(i int) {
	if i < 0 {
		i = 0
	}
	changed := i != m.cursor
	m.cursor = i
	m.detailScroll = 0
	if changed || m.events == nil {
		m.loadEvents()
	}
}

func (m *Model) loadEvents() {
	m.events = []journal.Event{}
	item, ok := m.selected()
	if !ok || m.history == nil {
		return
	}
	events, err := m.history.Events(context.Background(), journal.Filter{GoalName: item.Entry.Name, Limit: historyLimit})
	if err != nil {
		m.setStatus("History error: " + err.Error())
		return
	}
	m.events = events
}

// getGlamourRenderer returns a cached glamour renderer, creating one if needed
// or if the width changed.
func (m *Model) getGlamourRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	if m.glamourRenderer != nil && m.glamourWidth == width {
		return m.glamourRenderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	m.glamourRenderer = r
	m.glamourWidth = width
	return r
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTimeout = time.Now().Add(3 * time.Second)
}

func (m Model) doSync() tea.Cmd {
	dir := m.dataDir
	return func() tea.Msg {
		err := gsync.SyncRepo(context.Background(), dir, io.Discard)
		return SyncDoneMsg{Err: err}
	}
}

func (m Model) listWidth() int {
	w := m.width * 2 / 5
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) detailWidth() int {
	w := m.width - m.listWidth() - 1
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) formWidth() int {
	w := m.width - 10
	if w > 70 {
		w = 70
	}
	if w < 30 {
		w = 30
	}
	return w
}

// statusText returns the current status message, or "" once it expired.
func (m Model) statusText() string {
	if m.statusMsg == "" || time.Now().After(m.statusTimeout) {
		return ""
	}
	return strings.TrimSpace(m.statusMsg)
}
