// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package analyzer derives analytics from a scanned snapshot: referenced
// entities, a dependency graph, conflicting directives, a safety score,
// health findings and configuration coverage. Everything here is a keyword
// heuristic over strings; nothing is resolved against the assistant itself.
package analyzer

import (
	"sort"
	"time"

	"github.com/iclaudius/claudius/internal/fileutil"
	"github.com/iclaudius/claudius/internal/model"
)

// Severity ranks health findings.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// DefaultTokenBudget is the per-file token budget for instruction files.
const DefaultTokenBudget = 10000

// DefaultStaleAfter marks instruction files unmodified for longer as stale.
const DefaultStaleAfter = 180 * 24 * time.Hour

// Options tunes the heuristics.
type Options struct {
	TokenBudget int
	StaleAfter  time.Duration
	// Now is the reference time for staleness. Zero means the snapshot's
	// scan time.
	Now time.Time
	// Exists reports whether a path exists. Nil uses the file system.
	Exists func(path string) bool
	// Home expands "~/" and "$HOME/" in cron commands. Empty leaves
	// home-relative scripts unchecked.
	Home string
}

func (o Options) withDefaults(snap *model.Snapshot) Options {
	if o.TokenBudget <= 0 {
		o.TokenBudget = DefaultTokenBudget
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.Now.IsZero() {
		o.Now = snap.ScannedAt
		if o.Now.IsZero() {
			o.Now = time.Now()
		}
	}
	if o.Exists == nil {
		o.Exists = fileutil.Exists
	}
	return o
}

// Summary holds per-category counts.
type Summary struct {
	Instructions int `json:"instructions"`
	Commands     int `json:"commands"`
	Skills       int `json:"skills"`
	Agents       int `json:"agents"`
	Plugins      int `json:"plugins"`
	Settings     int `json:"settings"`
	MCPServers   int `json:"mcp_servers"`
	CronJobs     int `json:"cron_jobs"`
	Changes      int `json:"changes"`
	Issues       int `json:"issues"`
}

// Report is the result of one analysis.
type Report struct {
	Summary   Summary    `json:"summary"`
	Entities  []Entity   `json:"entities"`
	Graph     Graph      `json:"graph"`
	Conflicts []Conflict `json:"conflicts"`
	Safety    Safety     `json:"safety"`
	Health    []Finding  `json:"health"`
	Coverage  Coverage   `json:"coverage"`
}

// Finding is one health observation.
type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

// Analyze runs every heuristic over snap.
func Analyze(snap *model.Snapshot, opts Options) *Report {
	opts = opts.withDefaults(snap)
	r := &Report{
		Summary: Summary{
			Instructions: len(snap.Instructions),
			Commands:     len(snap.CommandsOfKind(model.KindCommand)),
			Skills:       len(snap.CommandsOfKind(model.KindSkill)),
			Agents:       len(snap.CommandsOfKind(model.KindAgent)),
			Plugins:      len(snap.Plugins),
			Settings:     len(snap.ExistingSettings()),
			MCPServers:   len(snap.MCPServers),
			CronJobs:     len(snap.CronJobs),
			Changes:      len(snap.Changes),
			Issues:       len(snap.Issues),
		},
	}
	r.Entities = ExtractEntities(snap)
	r.Graph = BuildGraph(snap, opts.Exists)
	r.Conflicts = DetectConflicts(snap)
	r.Safety = ScoreSafety(snap)
	r.Health = CheckHealth(snap, opts)
	r.Coverage = MeasureCoverage(snap)
	return r
}

// TopFindings merges safety and health findings, most severe first, and
// returns up to n of them. Info findings are left out.
func (r *Report) TopFindings(n int) []Finding {
	var out []Finding
	for _, sf := range r.Safety.Findings {
		sev := SeverityWarning
		if sf.Deduction >= 15 {
			sev = SeverityError
		}
		out = append(out, Finding{Severity: sev, Rule: sf.Rule, Path: sf.Path, Message: sf.Message})
	}
	for _, f := range r.Health {
		if f.Severity != SeverityInfo {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity.rank() > out[j].Severity.rank() })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
