package logging

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level orders log severity.
type Level int32

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel  // rejected input, e.g. a failed integrity check
	ErrorLevel // needs an operator
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < DebugLevel || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel matches a level name ignoring case and surrounding space.
// "WARNING" is accepted; anything unknown is INFO.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WarnLevel
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i)
		}
	}
	return InfoLevel
}

// Field is one structured key/value.
type Field struct {
	Key   string
	Value any
}

// Logger is the structured logger every package takes.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child carrying fields on every entry.
	With(fields ...Field) Logger
	SetLevel(level Level)
	GetLevel() Level
}

// sink is shared by a JSONLogger and all of its children: one lock so lines
// never interleave, one level so SetLevel on the root reaches every child.
type sink struct {
	mu    sync.Mutex
	w     io.Writer
	level atomic.Int32
	now   func() time.Time
}

// JSONLogger writes one JSON object per line.
type JSONLogger struct {
	sink   *sink
	fields []Field
}

// LogEntry is the shape of one output line.
type LogEntry struct {
	Time    string         `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"msg"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (n NopLogger) With(...Field) Logger { return n }
func (NopLogger) SetLevel(Level)         {}
func (NopLogger) GetLevel() Level        { return ErrorLevel + 1 }

func Nop() Logger { return NopLogger{} }

// TimedOperation logs a message with its latency when ended.
type TimedOperation struct {
	logger Logger
	msg    string
	start  time.Time
	fields []Field
}
