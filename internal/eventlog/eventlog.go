// Package eventlog records hook decisions.
//
// Sinks are fire-and-forget: a failing sink logs at debug level and never
// reports back to the caller, so recording can not change a verdict.
package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Dicklesworthstone/safehook/internal/db"
	"github.com/charmbracelet/log"
)

// Event types written by the hook.
const (
	EventBlocked = "BLOCKED"
	EventWarned  = "WARNED"
	EventAllowed = "ALLOWED"
	EventError   = "ERROR"
)

// Sink receives hook events.
type Sink interface {
	Log(eventType, command, action string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(eventType, command, action string)

// Log calls f.
func (f SinkFunc) Log(eventType, command, action string) {
	f(eventType, command, action)
}

// Nop discards every event.
type Nop struct{}

// Log does nothing.
func (Nop) Log(string, string, string) {}

// Multi fans an event out to every sink in order.
type Multi []Sink

// Log forwards the event to each sink.
func (m Multi) Log(eventType, command, action string) {
	for _, s := range m {
		if s != nil {
			s.Log(eventType, command, action)
		}
	}
}

// lineLayout is the timestamp format of the line log.
const lineLayout = "2006-01-02 15:04:05"

// lineBreaks escapes line breaks so every event stays on one line.
var lineBreaks = strings.NewReplacer("\r\n", `\r\n`, "\n", `\n`, "\r", `\r`)

// FormatLine renders one line of the append-only log, without the newline.
func FormatLine(at time.Time, eventType, command, action string) string {
	return fmt.Sprintf("[%s] %s: %s %s", at.Format(lineLayout), eventType, lineBreaks.Replace(command), lineBreaks.Replace(action))
}

// FileSink appends one line per event to a log file.
type FileSink struct {
	path   string
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFileSink returns a sink appending to path. A leading "~/" is expanded.
func NewFileSink(path string, logger *log.Logger) *FileSink {
	if logger == nil {
		logger = log.Default()
	}
	return &FileSink{
		path:   ExpandHome(path),
		logger: logger.WithPrefix("eventlog"),
		now:    time.Now,
	}
}

// Path returns the expanded log file path.
func (s *FileSink) Path() string {
	return s.path
}

// Log appends the event. Errors are logged and swallowed.
func (s *FileSink) Log(eventType, command, action string) {
	if err := s.append(eventType, command, action); err != nil {
		s.logger.Debug("writing event log", "path", s.path, "err", err)
	}
}

func (s *FileSink) append(eventType, command, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	line := FormatLine(s.now(), eventType, command, action) + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("writing log line: %w", err)
	}
	return nil
}

// HistorySink stores events in the SQLite history database.
type HistorySink struct {
	db     *db.DB
	logger *log.Logger
	now    func() time.Time
}

// NewHistorySink returns a sink writing to database.
func NewHistorySink(database *db.DB, logger *log.Logger) *HistorySink {
	if logger == nil {
		logger = log.Default()
	}
	return &HistorySink{
		db:     database,
		logger: logger.WithPrefix("eventlog"),
		now:    time.Now,
	}
}

// Log inserts the event. Errors are logged and swallowed.
func (s *HistorySink) Log(eventType, command, action string) {
	if s.db == nil {
		return
	}
	err := s.db.InsertEvent(&db.Event{
		OccurredAt: s.now(),
		EventType:  eventType,
		Command:    command,
		Action:     action,
	})
	if err != nil {
		s.logger.Debug("recording event", "db", s.db.Path(), "err", err)
	}
}

// ExpandHome expands a leading "~/" to the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
