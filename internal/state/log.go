package state

import "fmt"

// DefaultLogLines is how many events a session keeps.
const DefaultLogLines = 500

// EventLog keeps the most recent notable events of a run for the session
// file. The zero value keeps DefaultLogLines lines.
type EventLog struct {
	Max   int
	lines []string
}

func (l *EventLog) Addf(format string, a ...any) {
	max := l.Max
	if max <= 0 {
		max = DefaultLogLines
	}
	l.lines = append(l.lines, fmt.Sprintf(format, a...))
	if n := len(l.lines); n > max {
		l.lines = append(l.lines[:0], l.lines[n-max:]...)
	}
}

// Lines returns a copy of the kept lines, oldest first.
func (l *EventLog) Lines() []string {
	return append([]string(nil), l.lines...)
}

// Restore seeds the log with lines from a loaded session.
func (l *EventLog) Restore(lines []string) {
	l.lines = nil
	for _, s := range lines {
		l.Addf("%s", s)
	}
}
