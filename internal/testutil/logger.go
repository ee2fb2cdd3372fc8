package testutil

import (
	"fmt"
	"sync"

	"pgs-go/internal/pgs"
)

// RecordingLogger captures log messages for assertions.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []string
}

var _ pgs.Logger = (*RecordingLogger)(nil)

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) log(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := level + " " + msg
	for i := 0; i+1 < len(args); i += 2 {
		entry += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	l.entries = append(l.entries, entry)
}

func (l *RecordingLogger) Debug(msg string, args ...any) { l.log("DEBUG", msg, args...) }
func (l *RecordingLogger) Info(msg string, args ...any)  { l.log("INFO", msg, args...) }
func (l *RecordingLogger) Warn(msg string, args ...any)  { l.log("WARN", msg, args...) }
func (l *RecordingLogger) Error(msg string, args ...any) { l.log("ERROR", msg, args...) }

// Entries returns a copy of the captured log lines.
func (l *RecordingLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.entries...)
}
