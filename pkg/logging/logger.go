// Package logging is a small levelled logger that writes "LEVEL: msg |
// key=value ..." lines. Goal and ledger events are logged at debug, load
// and save problems at warn.
package logging

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"sync"
)

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel maps a config value such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	for lvl, name := range levelNames {
		if strings.EqualFold(s, name) {
			return lvl, nil
		}
	}
	if strings.EqualFold(s, "warning") {
		return LevelWarn, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// Logger writes levelled key/value log lines. Child loggers created with
// With share the parent's level and output.
type Logger struct {
	mu     *sync.RWMutex
	level  *Level
	output *log.Logger
	fields []field
}

type field struct {
	key   string
	value interface{}
}

// New creates a Logger writing to w at the warn level.
func New(w io.Writer) *Logger {
	lvl := LevelWarn
	return &Logger{
		mu:     &sync.RWMutex{},
		level:  &lvl,
		output: log.New(w, "", log.LstdFlags),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := New(io.Discard)
	l.SetLevel(LevelError + 1)
	return l
}

// SetLevel sets the minimum level for l and every logger derived from it.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

// SetOutput replaces the destination writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.SetOutput(w)
}

// SetFlags sets the standard log flags (timestamps etc.).
func (l *Logger) SetFlags(flags int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.SetFlags(flags)
}

// With returns a child logger that adds key=value to every line.
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, field{key, value})
	return &Logger{mu: l.mu, level: l.level, output: l.output, fields: fields}
}

func (l *Logger) log(level Level, msg string, keyVals ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < *l.level {
		return
	}

	var sb strings.Builder
	sb.WriteString(level.String())
	sb.WriteString(": ")
	sb.WriteString(msg)

	fields := append([]field(nil), l.fields...)
	var inline []field
	for i := 0; i+1 < len(keyVals); i += 2 {
		if key, ok := keyVals[i].(string); ok {
			inline = append(inline, field{key, keyVals[i+1]})
		}
	}
	sort.SliceStable(inline, func(a, b int) bool { return inline[a].key < inline[b].key })
	fields = append(fields, inline...)

	if len(fields) > 0 {
		sb.WriteString(" |")
		for _, f := range fields {
			sb.WriteString(" ")
			sb.WriteString(f.key)
			sb.WriteString("=")
			sb.WriteString(formatValue(f.value))
		}
	}

	l.output.Print(sb.String())
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t\n|=") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case error:
		return fmt.Sprintf("%q", val.Error())
	default:
		return fmt.Sprint(v)
	}
}

func (l *Logger) Debug(msg string, keyVals ...interface{}) { l.log(LevelDebug, msg, keyVals...) }
func (l *Logger) Info(msg string, keyVals ...interface{})  { l.log(LevelInfo, msg, keyVals...) }
func (l *Logger) Warn(msg string, keyVals ...interface{})  { l.log(LevelWarn, msg, keyVals...) }
func (l *Logger) Error(msg string, keyVals ...interface{}) { l.log(LevelError, msg, keyVals...) }
