package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Redacted replaces the value of any field whose key names secret material.
const Redacted = "[REDACTED]"

// sensitiveKeys are redacted whatever value the caller passes.
var sensitiveKeys = map[string]bool{
	"passphrase": true,
	"password":   true,
	"secret":     true,
	"key":        true,
	"plaintext":  true,
	"content":    true,
}

func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	s := &sink{w: w, now: time.Now}
	s.level.Store(int32(level))
	return &JSONLogger{sink: s}
}

// NewStderrLogger keeps stdout free for containers and plaintext, which the
// CLI writes there.
func NewStderrLogger(level Level) *JSONLogger {
	return NewJSONLogger(os.Stderr, level)
}

func (l *JSONLogger) enabled(level Level) bool {
	return level >= Level(l.sink.level.Load())
}

func (l *JSONLogger) log(level Level, msg string, fields []Field) {
	if !l.enabled(level) {
		return
	}

	entry := LogEntry{
		Time:    l.sink.now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	}
	if n := len(l.fields) + len(fields); n > 0 {
		entry.Fields = make(map[string]any, n)
		for _, set := range [2][]Field{l.fields, fields} {
			for _, f := range set {
				if sensitiveKeys[f.Key] {
					entry.Fields[f.Key] = Redacted
				} else {
					entry.Fields[f.Key] = f.Value
				}
			}
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		data = fmt.Appendf(nil, `{"level":"ERROR","msg":"unencodable log entry","error":%q}`, err.Error())
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.w.Write(append(data, '\n'))
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *JSONLogger) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &JSONLogger{sink: l.sink, fields: merged}
}

// SetLevel changes the level for this logger, its parent and all children.
func (l *JSONLogger) SetLevel(level Level) { l.sink.level.Store(int32(level)) }

func (l *JSONLogger) GetLevel() Level { return Level(l.sink.level.Load()) }

var (
	defaultMu     sync.Mutex
	defaultLogger Logger
)

// DefaultLogger returns the process-wide logger, creating a stderr logger at
// the LOG_LEVEL level on first use.
func DefaultLogger() Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewStderrLogger(ParseLevel(os.Getenv("LOG_LEVEL")))
	}
	return defaultLogger
}

func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{logger: logger, msg: msg, start: time.Now(), fields: fields}
}

func (t *TimedOperation) Elapsed() time.Duration { return time.Since(t.start) }

// End logs at INFO.
func (t *TimedOperation) End(fields ...Field) {
	t.EndWithLevel(InfoLevel, t.msg, fields...)
}

// EndWithLevel logs msg with the timer's fields, then fields, then latency.
func (t *TimedOperation) EndWithLevel(level Level, msg string, fields ...Field) {
	all := make([]Field, 0, len(t.fields)+len(fields)+1)
	all = append(all, t.fields...)
	all = append(all, fields...)
	all = append(all, Latency(t.Elapsed()))

	emit := map[Level]func(string, ...Field){
		DebugLevel: t.logger.Debug,
		InfoLevel:  t.logger.Info,
		WarnLevel:  t.logger.Warn,
		ErrorLevel: t.logger.Error,
	}[level]
	if emit != nil {
		emit(msg, all...)
	}
}

func (t *TimedOperation) EndError(err error, fields ...Field) {
	t.EndWithLevel(ErrorLevel, t.msg, append(fields, Error(err))...)
}
