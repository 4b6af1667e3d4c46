package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/quest/pkg/journal"
	"github.com/stefanpenner/quest/pkg/quest"
	"github.com/stefanpenner/quest/pkg/tracker"
)

const minWidth = 50
const minHeight = 10

// View implements tea.Model.
func (m Model) View() string {
	w := m.width
	h := m.height
	if w < minWidth {
		w = minWidth
	}
	if h < minHeight {
		h = minHeight
	}

	if m.form != nil {
		modal := ModalStyle.Render(ModalTitleStyle.Render("New Goal") + "\n\n" + m.form.View())
		return placeOverlay(modal, w, h)
	}

	if m.showHelpModal {
		return placeOverlay(m.renderHelpModal(), w, h)
	}

	var b strings.Builder

	b.WriteString(m.renderHeader(w))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")

	headerLines := 2
	footerLines := 2

	searchActive := m.isSearching || m.searchQuery != ""
	if searchActive {
		headerLines++
		b.WriteString(m.renderSearchBar(w))
		b.WriteString("\n")
	}

	contentHeight := h - headerLines - footerLines

	leftWidth := m.listWidth()
	rightWidth := w - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}

	leftPanel := m.renderGoalPanel(leftWidth, contentHeight)
	rightPanel := m.renderDetailPanel(rightWidth, contentHeight)

	sepColor := ColorGrayDim
	if m.focusedPane == 1 {
		sepColor = ColorPurple
	}
	sep := lipgloss.NewStyle().Foreground(sepColor).Render("│")
	for i := 0; i < contentHeight; i++ {
		b.WriteString(getLine(leftPanel, i, leftWidth))
		b.WriteString(sep)
		b.WriteString(getLine(rightPanel, i, rightWidth))
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", w))
	b.WriteString("\n")
	b.WriteString(m.renderFooter(w))

	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := HeaderStyle.Render("Eternal Quest")
	score := ScoreStyle.Render(fmt.Sprintf("  %d pts", m.tracker.Score()))

	total, complete := 0, 0
	for _, e := range m.tracker.ListGoals() {
		total++
		if e.Complete {
			complete++
		}
	}
	stats := HeaderCountStyle.Render(fmt.Sprintf("%d/%d goals complete", complete, total))

	status := ""
	if s := m.statusText(); s != "" {
		status = "  " + StatusStyle.Render(s) + "  "
	}

	left := title + score
	gap := width - lipgloss.Width(left) - lipgloss.Width(stats) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + status + stats
}

func (m Model) renderSearchBar(width int) string {
	prefix := SearchBarStyle.Render(" / ")
	query := SearchBarStyle.Render(m.searchQuery)
	if m.isSearching {
		query = m.searchInput.View()
	}

	count := 0
	for _, item := range m.items {
		if !item.IsSectionHeader {
			count++
		}
	}
	countStr := ""
	if m.searchQuery != "" {
		countStr = SearchCountStyle.Render(fmt.Sprintf(" %d matches", count))
	}

	left := prefix + query
	pad := width - lipgloss.Width(left) - lipgloss.Width(countStr)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + countStr
}

func (m Model) renderGoalPanel(width, height int) string {
	var lines []string

	// Reserve last line for the progress file path
	listHeight := height - 1
	if listHeight < 1 {
		listHeight = 1
	}

	if len(m.items) == 0 {
		if m.searchQuery != "" {
			lines = append(lines, FooterStyle.Render(" No goals match."))
		} else {
			lines = append(lines, FooterStyle.Render(" No goals yet. Press 'a' to add one."))
		}
	}

	// Scrolling window
	startIdx := 0
	endIdx := len(m.items)
	if len(m.items) > listHeight {
		startIdx = m.cursor - listHeight/2
		if startIdx < 0 {
			startIdx = 0
		}
		endIdx = startIdx + listHeight
		if endIdx > len(m.items) {
			endIdx = len(m.items)
			startIdx = endIdx - listHeight
		}
	}

	for i := startIdx; i < endIdx; i++ {
		item := m.items[i]
		if item.IsSectionHeader {
			lines = append(lines, renderSectionHeader(item, width))
			continue
		}
		lines = append(lines, m.renderGoalItem(item, i == m.cursor, width))
	}

	for len(lines) < listHeight {
		lines = append(lines, "")
	}

	path := m.tracker.Path()
	lines = append(lines, lipgloss.NewStyle().Foreground(ColorGrayDim).Render(fileHyperlink(path)))

	return strings.Join(lines, "\n")
}

func renderSectionHeader(item ListItem, width int) string {
	var style lipgloss.Style
	switch item.Name {
	case "ETERNAL":
		style = EternalHeaderStyle
	case "CHECKLIST":
		style = ChecklistHeaderStyle
	default:
		style = SimpleHeaderStyle
	}

	label := style.Render("── " + item.Name + " ")
	if remaining := width - lipgloss.Width(label); remaining > 0 {
		label += lipgloss.NewStyle().Foreground(ColorGrayDim).Render(strings.Repeat("─", remaining))
	}
	return label
}

func (m Model) renderGoalItem(item ListItem, isSelected bool, width int) string {
	e := item.Entry
	index := IndexStyle.Render(fmt.Sprintf("%2d ", e.DisplayIndex))
	icon := statusIcon(e)

	name := item.Name
	if m.searchQuery != "" {
		if isSelected {
			name = highlightMatch(name, m.searchQuery, SearchCharSelectedStyle, SelectedStyle)
		} else {
			name = highlightMatch(name, m.searchQuery, SearchCharStyle, lipgloss.NewStyle())
		}
	}

	progress := ProgressTextStyle.Render(e.ProgressText)
	line := " " + index + icon + " " + name
	if gap := width - lipgloss.Width(line) - lipgloss.Width(progress) - 1; gap > 0 {
		line += strings.Repeat(" ", gap) + progress + " "
	}

	if lw := lipgloss.Width(line); lw < width {
		line += strings.Repeat(" ", width-lw)
	}
	if isSelected {
		line = SelectedStyle.Render(line)
	}
	return line
}

func statusIcon(e tracker.Entry) string {
	switch {
	case e.Complete:
		return CompleteStyle.Render(IconComplete)
	case e.Kind == quest.KindEternal:
		return EternalStyle.Render(IconEternal)
	case e.Kind == quest.KindChecklist && e.Progress.Current > 0:
		return InProgressStyle.Render(IconInProgress)
	default:
		return IncompleteStyle.Render(IconIncomplete)
	}
}

func (m Model) renderDetailPanel(width, height int) string {
	item, ok := m.selected()
	if !ok {
		return FooterStyle.Render(" Select a goal to view details")
	}

	md := goalMarkdown(item.Entry, m.events, m.history != nil)

	var rendered string
	if m.glamourRenderer != nil {
		var err error
		rendered, err = m.glamourRenderer.Render(md)
		if err != nil {
			rendered = md
		}
	} else {
		rendered = md
	}
	rendered = strings.TrimRight(rendered, "\n ")
	lines := strings.Split(rendered, "\n")

	if item.Entry.Kind == quest.KindChecklist {
		bar := " " + progressBar(item.Entry.Progress.Fraction(), width-4)
		lines = append([]string{"", bar}, lines...)
	}

	scroll := m.detailScroll
	if scroll > len(lines)-1 {
		scroll = len(lines) - 1
	}
	if scroll < 0 {
		scroll = 0
	}
	lines = lines[scroll:]
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// goalMarkdown builds the detail pane for a goal.
func goalMarkdown(e tracker.Entry, events []journal.Event, journaled bool) string {
	var md strings.Builder

	md.WriteString("# " + e.Name + "\n\n")

	meta := []string{
		"**Kind:** " + kindLabel(e.Kind),
		fmt.Sprintf("**Points:** %d", e.Points),
	}
	switch e.Kind {
	case quest.KindEternal:
		meta = append(meta, fmt.Sprintf("**Streak:** %d", e.Progress.Streak))
	case quest.KindChecklist:
		meta = append(meta, fmt.Sprintf("**Progress:** %d/%d", e.Progress.Current, e.Progress.Target))
	}
	if e.Complete {
		meta = append(meta, "**Status:** complete")
	} else if e.Kind != quest.KindEternal {
		meta = append(meta, "**Status:** open")
	}
	md.WriteString(strings.Join(meta, " | ") + "\n\n")

	if e.Description != "" {
		md.WriteString(e.Description + "\n\n")
	}

	if !journaled {
		return md.String()
	}
	md.WriteString("## Recent events\n\n")
	if len(events) == 0 {
		md.WriteString("_No events recorded yet._\n")
		return md.String()
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		line := fmt.Sprintf("- %s  **%+d**", ev.RecordedAt.Local().Format("2006-01-02 15:04"), ev.Points)
		switch {
		case !ev.Accepted:
			line += " (already complete)"
		case ev.Milestone > 0:
			line += fmt.Sprintf(" (%d-day streak)", ev.Milestone)
		case ev.Finished:
			line += " (completed)"
		}
		md.WriteString(line + "\n")
	}
	return md.String()
}

func kindLabel(k quest.Kind) string {
	switch k {
	case quest.KindEternal:
		return "eternal"
	case quest.KindChecklist:
		return "checklist"
	default:
		return "one-time"
	}
}

func progressBar(fraction float64, width int) string {
	if width < 4 {
		width = 4
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return BarFilledStyle.Render(strings.Repeat(IconBarFilled, filled)) +
		BarEmptyStyle.Render(strings.Repeat(IconBarEmpty, width-filled))
}

func (m Model) renderFooter(width int) string {
	help := m.keys.ShortHelp()
	switch {
	case m.isSearching:
		help = "type to search  enter/↓ keep filter  esc clear"
	case m.searchQuery != "":
		help = "esc clear filter  ↑↓ nav  space record"
	case m.focusedPane == 1:
		help = "↑↓ scroll details  tab goals  ? help"
	}
	return FooterStyle.Render(help)
}

func (m Model) renderHelpModal() string {
	var b strings.Builder

	b.WriteString(ModalTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().Foreground(ColorBlue).Width(16)
	descStyle := lipgloss.NewStyle().Foreground(ColorWhite)

	for _, binding := range m.keys.FullHelp() {
		b.WriteString(keyStyle.Render(binding[0]))
		b.WriteString(descStyle.Render(binding[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("Press Esc or ? to close"))

	return ModalStyle.Render(b.String())
}

// highlightMatch styles the first case-insensitive occurrence of query in
// name with charStyle and the rest with rowStyle.
func highlightMatch(name, query string, charStyle, rowStyle lipgloss.Style) string {
	start, end, ok := indexFold(name, query)
	if !ok {
		return rowStyle.Render(name)
	}
	before := name[:start]
	match := name[start:end]
	after := name[end:]

	var result string
	if before != "" {
		result += rowStyle.Render(before)
	}
	result += charStyle.Render(match)
	if after != "" {
		result += rowStyle.Render(after)
	}
	return result
}

// fileHyperlink wraps a file path in an OSC 8 terminal hyperlink so it's clickable.
func fileHyperlink(path string) string {
	return fmt.Sprintf("\x1b]8;;file://%s\x1b\\%s\x1b]8;;\x1b\\", path, path)
}

func getLine(block string, idx int, width int) string {
	lines := strings.Split(block, "\n")
	if idx < len(lines) {
		line := lines[idx]
		if lw := lipgloss.Width(line); lw < width {
			return line + strings.Repeat(" ", width-lw)
		}
		return line
	}
	return strings.Repeat(" ", width)
}

func placeOverlay(modal string, width, height int) string {
	modalLines := strings.Split(modal, "\n")

	topPadding := (height - len(modalLines)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	leftPadding := (width - lipgloss.Width(modalLines[0])) / 2
	if leftPadding < 0 {
		leftPadding = 0
	}

	var result strings.Builder
	for i := 0; i < topPadding; i++ {
		result.WriteString("\n")
	}
	for _, line := range modalLines {
		result.WriteString(strings.Repeat(" ", leftPadding))
		result.WriteString(line)
		result.WriteString("\n")
	}
	return result.String()
}
