// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package state holds the latest scan and analysis for the UI. It is a
// passive, concurrency-safe holder: callers ask it to refresh and read what
// it has.
package state

import (
	"context"
	"sync"
	"time"

	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/db"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/jonboulle/clockwork"
)

// Scanner produces snapshots. *scanner.Scanner satisfies it.
type Scanner interface {
	Scan(ctx context.Context) (*model.Snapshot, error)
}

// History stores scan summaries. *db.Store satisfies it.
type History interface {
	RecordScan(ctx context.Context, rec db.ScanModel) (db.ScanModel, error)
}

// View is a consistent copy of the dashboard state.
type View struct {
	Snapshot *model.Snapshot
	Report   *analyzer.Report
	Loading  bool
	Err      error
	LoadedAt time.Time
}

// Dashboard is the shared view-model.
type Dashboard struct {
	scanner  Scanner
	analysis analyzer.Options
	history  History
	clock    clockwork.Clock

	mu   sync.RWMutex
	view View

	// refreshMu serialises refreshes so an older scan never replaces a
	// newer one.
	refreshMu sync.Mutex
	updates   chan struct{}
}

// New returns an empty dashboard. history and clock may be nil.
func New(s Scanner, opts analyzer.Options, history History, clock clockwork.Clock) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Dashboard{
		scanner:  s,
		analysis: opts,
		history:  history,
		clock:    clock,
		updates:  make(chan struct{}, 1),
	}
}

// SetHistory replaces the history sink.
func (d *Dashboard) SetHistory(h History) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = h
}

// Current returns the latest state.
func (d *Dashboard) Current() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.view
}

// Updates is signalled after every refresh. Signals coalesce: a reader that
// falls behind sees one pending signal, not one per refresh.
func (d *Dashboard) Updates() <-chan struct{} { return d.updates }

// Refresh scans and analyses synchronously. On error the previous snapshot
// and report are kept and Err is set.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	d.mu.Lock()
	d.view.Loading = true
	history := d.history
	d.mu.Unlock()

	snap, err := d.scanner.Scan(ctx)
	var report *analyzer.Report
	if err == nil {
		report = analyzer.Analyze(snap, d.analysis)
	}

	d.mu.Lock()
	d.view.Loading = false
	d.view.Err = err
	if err == nil {
		d.view.Snapshot = snap
		d.view.Report = report
		d.view.LoadedAt = d.clock.Now()
	}
	d.mu.Unlock()
	d.notify()

	if err != nil {
		logging.Warnf("refresh failed: %v", err)
		return err
	}
	logging.Debugf("refreshed in %s: score %d, %d issues", snap.Duration, report.Safety.Score, len(snap.Issues))

	if history != nil {
		if _, herr := history.RecordScan(ctx, db.NewScanRecord(snap, report)); herr != nil {
			logging.Warnf("history: %v", herr)
		}
	}
	return nil
}

// RefreshAsync starts a refresh in the background. The returned channel is
// closed when it completes.
func (d *Dashboard) RefreshAsync(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	d.mu.Lock()
	d.view.Loading = true
	d.mu.Unlock()
	go func() {
		defer close(done)
		_ = d.Refresh(ctx)
	}()
	return done
}

func (d *Dashboard) notify() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}
