// Package logging defines the gateway's logging contract and a zerolog-
// backed implementation. The interface shape (leveled methods taking a
// message plus variadic key-value pairs) is kept from the teacher's own
// rag.Logger; the implementation behind it is zerolog so that the
// structured per-request fields the HTTP surface needs (method, path,
// collection, top_k, ...) come out as real structured fields instead of
// being flattened into a single formatted string.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Level mirrors the teacher's LogLevel enum so config-driven level
// strings (e.g. from a GATEWAY_LOG_LEVEL env var) parse the same way.
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelOff:
		return zerolog.Disabled
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel implements the same case-insensitive parsing as the teacher's
// LogLevel.UnmarshalText, so config files/env vars can name a level by
// string.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToUpper(s) {
	case "OFF":
		return LevelOff, true
	case "ERROR":
		return LevelError, true
	case "WARN":
		return LevelWarn, true
	case "INFO":
		return LevelInfo, true
	case "DEBUG":
		return LevelDebug, true
	default:
		return LevelInfo, false
	}
}

// Logger is the structured logging contract used throughout the gateway.
// Call sites pass alternating key/value pairs, matching the teacher's
// rag.Logger shape so existing call-site idioms (Info("msg", "k", v))
// carry over unchanged.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	SetLevel(level Level)
}

type zlogger struct {
	z     zerolog.Logger
	level Level
}

// New builds a Logger writing structured JSON lines to os.Stderr at the
// given level.
func New(level Level) Logger {
	z := zerolog.New(os.Stderr).With().Timestamp().Logger()
	z = z.Level(level.zerolog())
	return &zlogger{z: z, level: level}
}

func (l *zlogger) SetLevel(level Level) {
	l.level = level
	l.z = l.z.Level(level.zerolog())
}

func withFields(e *zerolog.Event, keysAndValues ...interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	return e
}

func (l *zlogger) Debug(msg string, kv ...interface{}) { withFields(l.z.Debug(), kv...).Msg(msg) }
func (l *zlogger) Info(msg string, kv ...interface{})  { withFields(l.z.Info(), kv...).Msg(msg) }
func (l *zlogger) Warn(msg string, kv ...interface{})  { withFields(l.z.Warn(), kv...).Msg(msg) }
func (l *zlogger) Error(msg string, kv ...interface{}) { withFields(l.z.Error(), kv...).Msg(msg) }

// Global is the fallback logger used outside a request (main's startup
// errors) and by constructors handed a nil Logger. Request-path code
// should use the Logger passed down from main, not this global, per the
// Design Notes' "no hidden global state in library code" directive.
var Global Logger = New(LevelInfo)
