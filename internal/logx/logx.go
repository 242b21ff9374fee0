package logx

import (
	"fmt"
	"io"
	"log"
	"strings"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int32(l))
	}
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

type Logger struct {
	out   *log.Logger
	id    string
	level Level
}

func New(w io.Writer, id string, level Level) *Logger {
	return &Logger{out: log.New(w, "", log.LstdFlags), id: id, level: level}
}

// Discard returns a logger that writes nothing.
func Discard() *Logger { return New(io.Discard, "", LevelError+1) }

// With returns a logger for a sub-component sharing the same output.
func (l *Logger) With(id string) *Logger {
	c := &Logger{out: l.out, id: id, level: l.level}
	if l.id != "" {
		c.id = l.id + "/" + id
	}
	return c
}

func (l *Logger) Enabled(level Level) bool { return level >= l.level }

func (l *Logger) logf(level Level, f string, a ...any) {
	if l == nil || !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(f, a...)
	if l.id != "" {
		l.out.Printf("[%s] [%s] %s", l.id, level, msg)
		return
	}
	l.out.Printf("[%s] %s", level, msg)
}

func (l *Logger) Debugf(f string, a ...any) { l.logf(LevelDebug, f, a...) }
func (l *Logger) Infof(f string, a ...any)  { l.logf(LevelInfo, f, a...) }
func (l *Logger) Warnf(f string, a ...any)  { l.logf(LevelWarn, f, a...) }
