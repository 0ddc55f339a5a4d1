package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventAddSong    EventType = "add_song"
	EventAddTag     EventType = "add_tag"
	EventTagSong    EventType = "tag_song"
	EventRemoveSong EventType = "remove_song"
	EventRemoveTag  EventType = "remove_tag"
	EventQuery      EventType = "query"
	EventScan       EventType = "scan"
	EventError      EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// ParseEventLevel converts a config string to an EventLevel.
// "warn" is accepted so the console level names work here too.
func ParseEventLevel(s string) (EventLevel, error) {
	lvl := EventLevel(strings.ToLower(strings.TrimSpace(s)))
	switch lvl {
	case "":
		return LevelInfo, nil
	case "warn":
		return LevelWarning, nil
	}
	if _, ok := levelPriority[lvl]; !ok {
		return LevelInfo, fmt.Errorf("unknown event level %q", s)
	}
	return lvl, nil
}

// Event represents a single library operation
type Event struct {
	Timestamp  time.Time         `json:"ts"`
	RunID      string            `json:"run_id"`
	Level      EventLevel        `json:"level"`
	Event      EventType         `json:"event"`
	Path       string            `json:"path,omitempty"`
	Tag        string            `json:"tag,omitempty"`
	Value      *int              `json:"value,omitempty"`
	Conditions []string          `json:"conditions,omitempty"`
	Results    int               `json:"results,omitempty"`
	Changed    bool              `json:"changed,omitempty"`
	Duration   int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error      string            `json:"error,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file. A nil *EventLogger is valid and
// discards everything, so callers never need to check whether logging is on.
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
// minLevel determines which events are written (e.g., LevelInfo skips LevelDebug)
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runID := uuid.NewString()
	filename := fmt.Sprintf("events-%s-%s.jsonl", timestamp, runID[:8])
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    runID,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

func levelFor(err error) (EventLevel, string) {
	if err != nil {
		return LevelError, err.Error()
	}
	return LevelInfo, ""
}

// LogSong logs an add_song or remove_song event
func (l *EventLogger) LogSong(event EventType, path string, changed bool, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:   level,
		Event:   event,
		Path:    path,
		Changed: changed,
		Error:   errMsg,
	})
}

// LogTag logs an add_tag or remove_tag event
func (l *EventLogger) LogTag(event EventType, name string, changed bool, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:   level,
		Event:   event,
		Tag:     name,
		Changed: changed,
		Error:   errMsg,
	})
}

// LogTagSong logs a tag assignment
func (l *EventLogger) LogTagSong(path, tag string, value int, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level: level,
		Event: EventTagSong,
		Path:  path,
		Tag:   tag,
		Value: &value,
		Error: errMsg,
	})
}

// LogQuery logs a song query with its conditions and result count
func (l *EventLogger) LogQuery(conditions []string, results int, duration time.Duration, err error) error {
	level, errMsg := levelFor(err)
	return l.Log(&Event{
		Level:      level,
		Event:      EventQuery,
		Conditions: conditions,
		Results:    results,
		Duration:   duration.Milliseconds(),
		Error:      errMsg,
	})
}

// LogScan logs a directory import
func (l *EventLogger) LogScan(root string, discovered, added, skipped int, duration time.Duration) error {
	return l.Log(&Event{
		Level:    LevelInfo,
		Event:    EventScan,
		Path:     root,
		Results:  added,
		Duration: duration.Milliseconds(),
		Extra: map[string]string{
			"discovered": fmt.Sprintf("%d", discovered),
			"skipped":    fmt.Sprintf("%d", skipped),
		},
	})
}

// LogError logs a failure that did not abort op, such as one unreadable
// file during a scan
func (l *EventLogger) LogError(op EventType, path string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: EventError,
		Path:  path,
		Error: err.Error(),
		Extra: map[string]string{"op": string(op)},
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the identifier stamped on every event from this logger
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}
