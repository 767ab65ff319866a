package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers. None of these carry secret material.

func Component(name string) Field {
	return String("component", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

// Stage is the pipeline stage that failed: decode, integrity, derive, cipher.
func Stage(s string) Field {
	return String("stage", s)
}

// Format is the container format: legacy or advanced.
func Format(f string) Field {
	return String("format", f)
}

// Derivation is the key-derivation label, e.g. "pbkdf2-100000".
func Derivation(label string) Field {
	return String("key_derivation", label)
}

// Kind is the error kind name.
func Kind(k string) Field {
	return String("kind", k)
}

func Size(n int) Field {
	return Int("size", n)
}

func RequestID(id string) Field {
	return String("request_id", id)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Path(p string) Field {
	return String("path", p)
}
