/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a log.FieldLogger implementation that records entries for assertions in tests.
package logtest

import (
	"fmt"
	"sync"

	"github.com/acronis/go-cachekit/log"
)

// RecordedEntry represents recorded entry which was logged.
type RecordedEntry struct {
	Level  log.Level
	Text   string
	Fields []log.Field
}

// FindField tries to find field in logging entry by key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

// Recorder is an implementation of log.FieldLogger that records all logged entries.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.RWMutex
	fields  []log.Field
	entries *[]RecordedEntry
}

var _ log.FieldLogger = (*Recorder)(nil)

// NewRecorder creates a new Recorder.
func NewRecorder() *Recorder {
	return &Recorder{entries: &[]RecordedEntry{}}
}

// Entries returns a snapshot of all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]RecordedEntry(nil), *r.entries...)
}

// FindEntry tries to find the first recorded entry with the given text.
func (r *Recorder) FindEntry(text string) (RecordedEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range *r.entries {
		if entry.Text == text {
			return entry, true
		}
	}
	return RecordedEntry{}, false
}

func (r *Recorder) record(level log.Level, text string, fields []log.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allFields := append([]log.Field(nil), r.fields...)
	allFields = append(allFields, fields...)
	*r.entries = append(*r.entries, RecordedEntry{Level: level, Text: text, Fields: allFields})
}

// With returns a new logger that records entries to the same storage with the given additional fields.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Recorder{fields: append(append([]log.Field(nil), r.fields...), fs...), entries: r.entries}
}

// Debug records a message at "debug" level.
func (r *Recorder) Debug(text string, fields ...log.Field) {
	r.record(log.LevelDebug, text, fields)
}

// Info records a message at "info" level.
func (r *Recorder) Info(text string, fields ...log.Field) {
	r.record(log.LevelInfo, text, fields)
}

// Warn records a message at "warn" level.
func (r *Recorder) Warn(text string, fields ...log.Field) {
	r.record(log.LevelWarn, text, fields)
}

// Error records a message at "error" level.
func (r *Recorder) Error(text string, fields ...log.Field) {
	r.record(log.LevelError, text, fields)
}

// Debugf records a formatted message at "debug" level.
func (r *Recorder) Debugf(format string, args ...interface{}) {
	r.record(log.LevelDebug, fmt.Sprintf(format, args...), nil)
}

// Infof records a formatted message at "info" level.
func (r *Recorder) Infof(format string, args ...interface{}) {
	r.record(log.LevelInfo, fmt.Sprintf(format, args...), nil)
}

// Warnf records a formatted message at "warn" level.
func (r *Recorder) Warnf(format string, args ...interface{}) {
	r.record(log.LevelWarn, fmt.Sprintf(format, args...), nil)
}

// Errorf records a formatted message at "error" level.
func (r *Recorder) Errorf(format string, args ...interface{}) {
	r.record(log.LevelError, fmt.Sprintf(format, args...), nil)
}

// AtLevel calls the given fn, passing a LogFunc that records a message at the specified level.
func (r *Recorder) AtLevel(level log.Level, fn func(log.LogFunc)) {
	fn(func(text string, fields ...log.Field) {
		r.record(level, text, fields)
	})
}
