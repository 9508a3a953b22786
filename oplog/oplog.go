package oplog

import (
	"fmt"
	"time"

	"github.com/viant/changegate/internal/clock"
)

// Severity classifies a single operation log entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is one timestamped line of a remote operation transcript.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
}

// Log accumulates entries produced while a remote operation runs. It is not
// safe for concurrent use; each operation owns its log.
type Log struct {
	entries []Entry
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append adds a pre-built entry.
func (l *Log) Append(entry Entry) {
	l.entries = append(l.entries, entry)
}

// Add records a message with the supplied severity.
func (l *Log) Add(severity Severity, format string, args ...interface{}) {
	l.entries = append(l.entries, Entry{
		Timestamp: clock.Now(),
		Message:   fmt.Sprintf(format, args...),
		Severity:  severity,
	})
}

// Infof records an info entry.
func (l *Log) Infof(format string, args ...interface{}) {
	l.Add(SeverityInfo, format, args...)
}

// Successf records a success entry.
func (l *Log) Successf(format string, args ...interface{}) {
	l.Add(SeveritySuccess, format, args...)
}

// Warningf records a warning entry.
func (l *Log) Warningf(format string, args ...interface{}) {
	l.Add(SeverityWarning, format, args...)
}

// Errorf records an error entry.
func (l *Log) Errorf(format string, args ...interface{}) {
	l.Add(SeverityError, format, args...)
}

// Entries returns a copy of the accumulated entries in insertion order.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}
