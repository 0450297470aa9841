// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package scanner builds a model.Snapshot from the local assistant
// configuration tree. A scan never fails because a file is missing or
// malformed: every swallowed error is recorded as a ScanIssue and the
// sub-scan contributes what it could read.
package scanner

import (
	"context"
	"errors"
	"sort"

	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/jonboulle/clockwork"
)

// CronLister lists the scheduled jobs. *cron.Crontab satisfies it.
type CronLister interface {
	List(ctx context.Context) ([]model.CronJob, error)
}

// Options configures a Scanner. Nil collaborators disable the matching
// sub-scan.
type Options struct {
	Tokens TokenCounter
	Prober Prober
	Cron   CronLister
	Clock  clockwork.Clock
}

// Scanner reads one Layout.
type Scanner struct {
	layout layout.Layout
	tokens TokenCounter
	prober Prober
	cron   CronLister
	clock  clockwork.Clock
}

// New returns a Scanner for l.
func New(l layout.Layout, opts Options) *Scanner {
	s := &Scanner{
		layout: l,
		tokens: opts.Tokens,
		prober: opts.Prober,
		cron:   opts.Cron,
		clock:  opts.Clock,
	}
	if s.tokens == nil {
		s.tokens = ApproxCounter{}
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	return s
}

// Layout returns the layout the scanner reads.
func (s *Scanner) Layout() layout.Layout { return s.layout }

// Scan reads the whole tree. The only error it returns is the context's.
func (s *Scanner) Scan(ctx context.Context) (*model.Snapshot, error) {
	start := s.clock.Now()
	snap := &model.Snapshot{
		ScannedAt: start,
		ConfigDir: s.layout.ConfigDir,
	}

	projects := DiscoverProjects(ctx, s.layout, snap)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logging.Debugf("discovered %d projects", len(projects))

	s.scanInstructions(projects, snap)
	s.scanSettings(projects, snap)
	s.scanPlugins(snap)
	s.scanCommands(projects, snap)
	s.scanMCP(projects, snap)
	s.scanChangeLog(snap)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.scanCron(ctx, snap)
	s.probe(ctx, snap)

	sortSnapshot(snap)
	snap.Duration = s.clock.Since(start)
	logging.Debugf("scan finished in %s with %d issues", snap.Duration, len(snap.Issues))
	return snap, nil
}

func (s *Scanner) scanChangeLog(snap *model.Snapshot) {
	path := s.layout.ChangeLog()
	entries, err := changelog.New(path, s.clock).Load()
	if err != nil {
		snap.AddIssue(path, err)
		return
	}
	snap.Changes = entries
}

func (s *Scanner) scanCron(ctx context.Context, snap *model.Snapshot) {
	if s.cron == nil {
		return
	}
	jobs, err := s.cron.List(ctx)
	if err != nil {
		snap.AddIssue("crontab", err)
		return
	}
	snap.CronJobs = jobs
}

func (s *Scanner) probe(ctx context.Context, snap *model.Snapshot) {
	if s.prober == nil {
		return
	}
	if v, err := s.prober.Version(ctx); err == nil {
		snap.AssistantVersion = v
	} else if !errors.Is(err, context.Canceled) {
		logging.Debugf("version check failed: %v", err)
	}
	if n, err := s.prober.Sessions(ctx); err == nil {
		snap.RunningSessions = n
	} else {
		logging.Debugf("session count failed: %v", err)
	}
}

var scopeOrder = map[model.Scope]int{
	model.ScopeGlobal:       0,
	model.ScopeUser:         1,
	model.ScopeUserLocal:    2,
	model.ScopeProject:      3,
	model.ScopeProjectLocal: 4,
	model.ScopeLocal:        5,
	model.ScopePlugin:       6,
}

func scopeLess(a, b model.Scope) (less, equal bool) {
	if scopeOrder[a] != scopeOrder[b] {
		return scopeOrder[a] < scopeOrder[b], false
	}
	return false, true
}

// sortSnapshot orders every list by scope, then path or name, so two scans
// of the same tree compare equal.
func sortSnapshot(snap *model.Snapshot) {
	sort.SliceStable(snap.Instructions, func(i, j int) bool {
		a, b := snap.Instructions[i], snap.Instructions[j]
		if less, eq := scopeLess(a.Scope, b.Scope); !eq {
			return less
		}
		return a.Path < b.Path
	})
	sort.SliceStable(snap.Commands, func(i, j int) bool {
		a, b := snap.Commands[i], snap.Commands[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if less, eq := scopeLess(a.Scope, b.Scope); !eq {
			return less
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
	sort.SliceStable(snap.Plugins, func(i, j int) bool {
		return snap.Plugins[i].ID() < snap.Plugins[j].ID()
	})
	sort.SliceStable(snap.Settings, func(i, j int) bool {
		a, b := snap.Settings[i], snap.Settings[j]
		if less, eq := scopeLess(a.Scope, b.Scope); !eq {
			return less
		}
		return a.Path < b.Path
	})
	sort.SliceStable(snap.MCPServers, func(i, j int) bool {
		a, b := snap.MCPServers[i], snap.MCPServers[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Name < b.Name
	})
	sort.SliceStable(snap.Issues, func(i, j int) bool {
		return snap.Issues[i].Path < snap.Issues[j].Path
	})
}

// Scan is a shorthand for New(l, opts).Scan(ctx).
func Scan(ctx context.Context, l layout.Layout, opts Options) (*model.Snapshot, error) {
	return New(l, opts).Scan(ctx)
}
