// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package changelog reads and appends the autonomous change log, a JSON file
// in the assistant config dir that records every change made to the
// configuration by a user or by an unattended assistant run.
package changelog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/iclaudius/claudius/internal/fileutil"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/jonboulle/clockwork"
)

// FormatVersion is written into every document this package saves.
const FormatVersion = 1

// ActorUser marks entries created through Claudius itself.
const ActorUser = "user"

// ErrMalformed is returned when the log file exists but cannot be decoded.
var ErrMalformed = errors.New("malformed change log")

// Document is the on-disk shape of the change log.
type Document struct {
	Version int                 `json:"version"`
	Entries []model.ChangeEntry `json:"entries"`
}

// Log is a handle on one change log file. It is safe for concurrent use
// within one process.
type Log struct {
	path  string
	clock clockwork.Clock
	mu    sync.Mutex
}

// New returns a Log for path. A nil clock uses the real clock.
func New(path string, clock clockwork.Clock) *Log {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Log{path: path, clock: clock}
}

// Path returns the file the log reads and writes.
func (l *Log) Path() string { return l.path }

// Load returns all entries, oldest first. A missing file is an empty log. A
// file that cannot be decoded yields an error wrapping ErrMalformed.
func (l *Log) Load() ([]model.ChangeEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Log) load() ([]model.ChangeEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	entries, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// Decode parses either the versioned document or the legacy bare array.
func Decode(data []byte) ([]model.ChangeEntry, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var entries []model.ChangeEntry
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return entries, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return doc.Entries, nil
}

// Append stores e and returns it with ID, Timestamp and Actor filled in.
// Appending to a malformed file fails instead of discarding its content.
func (l *Log) Append(e model.ChangeEntry) (model.ChangeEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load()
	if err != nil {
		return e, err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.clock.Now().UTC()
	}
	if e.Actor == "" {
		e.Actor = ActorUser
	}
	entries = append(entries, e)
	sortEntries(entries)

	data, err := json.MarshalIndent(Document{Version: FormatVersion, Entries: entries}, "", "  ")
	if err != nil {
		return e, err
	}
	if err := fileutil.WriteFileAtomic(l.path, append(data, '\n')); err != nil {
		return e, fmt.Errorf("write change log: %w", err)
	}
	return e, nil
}

// Record is a shorthand for appending a user entry.
func (l *Log) Record(action, target, summary string) error {
	_, err := l.Append(model.ChangeEntry{Action: action, Target: target, Summary: summary})
	return err
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func Recent(entries []model.ChangeEntry, n int) []model.ChangeEntry {
	out := make([]model.ChangeEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Filter keeps entries whose actor and action match. Empty arguments match
// everything. Matching ignores case.
func Filter(entries []model.ChangeEntry, actor, action string) []model.ChangeEntry {
	var out []model.ChangeEntry
	for _, e := range entries {
		if actor != "" && !strings.EqualFold(e.Actor, actor) {
			continue
		}
		if action != "" && !strings.EqualFold(e.Action, action) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortEntries(entries []model.ChangeEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
}
