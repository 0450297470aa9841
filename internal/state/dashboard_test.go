// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/db"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/iclaudius/claudius/internal/scanner"
	"github.com/iclaudius/claudius/internal/testutil"
	"github.com/jonboulle/clockwork"
)

type fakeScanner struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *fakeScanner) Scan(ctx context.Context) (*model.Snapshot, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.Snapshot{
		Instructions: []model.InstructionFile{{Path: "/x/CLAUDE.md", Content: "hi"}},
		Issues:       make([]model.ScanIssue, f.calls),
	}, nil
}

type fakeHistory struct {
	mu   sync.Mutex
	recs []db.ScanModel
}

func (f *fakeHistory) RecordScan(_ context.Context, rec db.ScanModel) (db.ScanModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, rec)
	return rec, nil
}

func TestRefresh_StoresResultAndRecordsHistory(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	hist := &fakeHistory{}
	d := New(&fakeScanner{}, analyzer.Options{}, hist, clock)

	if v := d.Current(); v.Snapshot != nil || v.Loading {
		t.Fatalf("expected empty view, got %+v", v)
	}
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	v := d.Current()
	if v.Snapshot == nil || v.Report == nil || v.Loading || v.Err != nil {
		t.Fatalf("unexpected view: %+v", v)
	}
	if !v.LoadedAt.Equal(clock.Now()) {
		t.Fatalf("LoadedAt = %v", v.LoadedAt)
	}
	if v.Report.Summary.Instructions != 1 {
		t.Fatalf("report not derived from snapshot: %+v", v.Report.Summary)
	}
	if len(hist.recs) != 1 || hist.recs[0].Issues != 1 {
		t.Fatalf("history not recorded: %+v", hist.recs)
	}
	select {
	case <-d.Updates():
	default:
		t.Fatal("expected an update signal")
	}
}

func TestRefresh_ErrorKeepsPreviousSnapshot(t *testing.T) {
	fs := &fakeScanner{}
	d := New(fs, analyzer.Options{}, nil, nil)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	first := d.Current().Snapshot

	fs.err = errors.New("boom")
	if err := d.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	v := d.Current()
	if v.Snapshot != first || v.Err == nil || v.Loading {
		t.Fatalf("unexpected view after failure: %+v", v)
	}
}

func TestRefreshAsync(t *testing.T) {
	fs := &fakeScanner{block: make(chan struct{})}
	d := New(fs, analyzer.Options{}, nil, nil)

	done := d.RefreshAsync(context.Background())
	if !d.Current().Loading {
		t.Fatal("expected Loading while the scan runs")
	}
	close(fs.block)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RefreshAsync did not finish")
	}
	if v := d.Current(); v.Loading || v.Snapshot == nil {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestRefresh_RealScanner(t *testing.T) {
	f := testutil.NewFixture(t)
	f.Populate()
	d := New(scanner.New(f.Layout(), scanner.Options{}), analyzer.Options{}, nil, nil)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := d.Current().Report.Safety.Score; got != 75 {
		t.Fatalf("score = %d, want 75", got)
	}

	dirs := d.WatchDirs(f.Layout())
	want := map[string]bool{
		f.Path(".claude"):                   false,
		f.Path(".claude/commands"):          false,
		f.Path("code/app"):                  false,
		f.Path("code/app/.claude"):          false,
		f.Path("code/app/.claude/commands"): false,
	}
	for _, dir := range dirs {
		if _, ok := want[dir]; ok {
			want[dir] = true
		}
	}
	for dir, seen := range want {
		if !seen {
			t.Errorf("missing watch dir %s in %v", dir, dirs)
		}
	}
}

func TestRelevant(t *testing.T) {
	cases := map[string]bool{
		"/a/CLAUDE.md":                   true,
		"/a/settings.json":               true,
		"/a/.CLAUDE.md.tmp-123":          false,
		"/a/CLAUDE.md.bak":               false,
		"/a/notes.txt":                   false,
		"/a/.settings.json.swp":          false,
		"/a/.claude/commands/deploy.md~": false,
	}
	for name, want := range cases {
		if got := relevant(fsnotify.Event{Name: name, Op: fsnotify.Write}); got != want {
			t.Errorf("relevant(%s) = %v, want %v", name, got, want)
		}
	}
	if relevant(fsnotify.Event{Name: "/a/CLAUDE.md", Op: fsnotify.Chmod}) {
		t.Error("chmod events should be ignored")
	}
}

func TestWatch_RefreshesOnChange(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeScanner{}
	d := New(fs, analyzer.Options{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- d.Watch(ctx, []string{dir, filepath.Join(dir, "missing")}, 20*time.Millisecond) }()

	deadline := time.After(10 * time.Second)
	for i := 0; ; i++ {
		// the watcher may not be registered yet; keep touching the file
		if err := os.WriteFile(filepath.Join(dir, "CLAUDE.md"), []byte{byte('a' + i%26)}, 0o600); err != nil {
			t.Fatal(err)
		}
		select {
		case <-d.Updates():
			cancel()
			if err := <-errc; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			if d.Current().Snapshot == nil {
				t.Fatal("expected a snapshot after the watch refresh")
			}
			return
		case <-time.After(200 * time.Millisecond):
		case <-deadline:
			t.Fatal("no refresh after file change")
		}
	}
}
