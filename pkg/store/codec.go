package store

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stefanpenner/quest/pkg/quest"
)

// Codec converts a ledger to and from its durable form.
type Codec interface {
	Encode(w io.Writer, l *quest.Ledger) error
	Decode(r io.Reader) (*quest.Ledger, error)
}

// CodecFor picks a codec from the file extension: .yaml and .yml use the
// full-fidelity YAMLCodec, everything else the line-based TextCodec.
func CodecFor(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLCodec{}
	}
	return TextCodec{}
}

const (
	fieldSeparator = "|"
	recordFields   = 5
)

// Checklist targets and bonuses are not part of the text format. Decoded
// checklist goals get these values instead.
const (
	PlaceholderChecklistTarget = 5
	PlaceholderChecklistBonus  = 50
)

// TextCodec reads and writes the flat progress format:
//
//	<score>
//	<kind>|<name>|<description>|<points>|<True|False>
//
// Only the fields common to every goal are stored. Streaks, checklist
// progress, targets and bonuses do not survive a round trip.
type TextCodec struct{}

// Encode writes l. Names or descriptions containing the field separator or
// a line break are rejected with a FormatError since they cannot be read
// back.
func (TextCodec) Encode(w io.Writer, l *quest.Ledger) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", l.Score())

	err := l.Each(func(i int, g quest.Goal) error {
		for _, field := range []string{g.Name(), g.Description()} {
			if strings.ContainsAny(field, fieldSeparator+"\r\n") {
				return formatErrorf(0, "goal %d: %q contains %q or a line break", i+1, field, fieldSeparator)
			}
		}
		fmt.Fprintf(bw, "%s|%s|%s|%d|%s\n",
			g.Kind(), g.Name(), g.Description(), g.Points(), formatBool(g.IsComplete()))
		return nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Decode parses a text progress file. Goals recorded as complete are
// driven back to completion by replaying a single RecordCompletion on the
// freshly built goal, so an eternal goal comes back with a streak of 1
// and a checklist goal with one completion.
func (TextCodec) Decode(r io.Reader) (*quest.Ledger, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading score: %w", err)
		}
		return nil, formatErrorf(1, "missing score line")
	}
	score, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, formatErrorf(1, "score %q is not an integer", sc.Text())
	}

	var goals []quest.Goal
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		g, err := decodeRecord(lineNo, line)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", lineNo+1, err)
	}

	return quest.Restore(score, goals), nil
}

func decodeRecord(lineNo int, line string) (quest.Goal, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != recordFields {
		return nil, formatErrorf(lineNo, "expected %d fields, got %d", recordFields, len(parts))
	}

	kind, err := quest.ParseKind(parts[0])
	if err != nil {
		return nil, formatErrorf(lineNo, "%v", err)
	}
	name, description := parts[1], parts[2]

	points, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return nil, formatErrorf(lineNo, "points %q is not an integer", parts[3])
	}
	complete, err := parseBool(parts[4])
	if err != nil {
		return nil, formatErrorf(lineNo, "completion flag %q is not a boolean", parts[4])
	}

	g, err := quest.NewGoal(kind, name, description, points,
		PlaceholderChecklistTarget, PlaceholderChecklistBonus)
	if err != nil {
		return nil, formatErrorf(lineNo, "%v", err)
	}
	if complete {
		g.RecordCompletion()
	}
	return g, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// parseBool accepts True/False in any case as well as the spellings
// understood by strconv.ParseBool.
func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "true"):
		return true, nil
	case strings.EqualFold(s, "false"):
		return false, nil
	}
	return strconv.ParseBool(s)
}
