package tui

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/stefanpenner/quest/pkg/quest"
	"github.com/stefanpenner/quest/pkg/tracker"
)

// ListItem is one row of the goal list: either a goal or a section header.
type ListItem struct {
	ID              string // "goal-<index>" or "__header_<kind>"
	Name            string
	Entry           tracker.Entry
	Index           int // 0-based ledger index, -1 for headers
	IsSectionHeader bool
}

func goalItem(e tracker.Entry) ListItem {
	return ListItem{
		ID:    "goal-" + strconv.Itoa(e.DisplayIndex-1),
		Name:  e.Name,
		Entry: e,
		Index: e.DisplayIndex - 1,
	}
}

// BuildItems lists entries in ledger order.
func BuildItems(entries []tracker.Entry) []ListItem {
	items := make([]ListItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, goalItem(e))
	}
	return items
}

var kindSections = []struct {
	kind  quest.Kind
	title string
}{
	{quest.KindSimple, "ONE-TIME"},
	{quest.KindEternal, "ETERNAL"},
	{quest.KindChecklist, "CHECKLIST"},
}

// GroupByKind lists entries under a section header per goal kind. Empty
// sections are left out; ledger order is kept within a section.
func GroupByKind(entries []tracker.Entry) []ListItem {
	var items []ListItem
	for _, sec := range kindSections {
		var group []ListItem
		for _, e := range entries {
			if e.Kind == sec.kind {
				group = append(group, goalItem(e))
			}
		}
		if len(group) == 0 {
			continue
		}
		items = append(items, ListItem{
			ID:              "__header_" + strings.ToLower(string(sec.kind)),
			Name:            sec.title,
			Index:           -1,
			IsSectionHeader: true,
		})
		items = append(items, group...)
	}
	return items
}

// FilterItems keeps goals whose name or description contains query
// (case-insensitive), plus the section headers that still have goals.
func FilterItems(items []ListItem, query string) []ListItem {
	q := strings.TrimSpace(query)
	if q == "" {
		return items
	}

	var result []ListItem
	var pending *ListItem
	for i := range items {
		item := items[i]
		if item.IsSectionHeader {
			pending = &items[i]
			continue
		}
		if !matches(item, q) {
			continue
		}
		if pending != nil {
			result = append(result, *pending)
			pending = nil
		}
		result = append(result, item)
	}
	return result
}

func matches(item ListItem, query string) bool {
	if _, _, ok := indexFold(item.Entry.Name, query); ok {
		return true
	}
	_, _, ok := indexFold(item.Entry.Description, query)
	return ok
}

// indexFold finds the first case-insensitive occurrence of query in s and
// returns its byte range in s. Matching is done rune by rune on s itself, so
// the range is valid even where lowercasing would change byte lengths.
func indexFold(s, query string) (start, end int, ok bool) {
	query = strings.TrimSpace(query)
	n := utf8.RuneCountInString(query)
	if n == 0 {
		return 0, 0, false
	}
	var offsets []int
	for i := range s {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	for i := 0; i+n < len(offsets); i++ {
		if strings.EqualFold(s[offsets[i]:offsets[i+n]], query) {
			return offsets[i], offsets[i+n], true
		}
	}
	return 0, 0, false
}

// firstGoal returns the first non-header position at or after from, or -1.
func firstGoal(items []ListItem, from int) int {
	for i := from; i < len(items); i++ {
		if i >= 0 && !items[i].IsSectionHeader {
			return i
		}
	}
	return -1
}

// lastGoal returns the last non-header position at or before from, or -1.
func lastGoal(items []ListItem, from int) int {
	if from >= len(items) {
		from = len(items) - 1
	}
	for i := from; i >= 0; i-- {
		if !items[i].IsSectionHeader {
			return i
		}
	}
	return -1
}
