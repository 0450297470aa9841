// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package analyzer

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/model"
)

// Health rule identifiers.
const (
	RuleEmptyInstructions = "empty-instructions"
	RuleOverBudget        = "over-token-budget"
	RuleNoDescription     = "missing-description"
	RuleSkillName         = "skill-missing-name"
	RuleBadJSON           = "unparsable-json"
	RuleScanIssue         = "scan-issue"
	RulePluginMissing     = "plugin-path-missing"
	RuleStale             = "stale-instructions"
	RuleCronScript        = "cron-missing-script"
	RuleBrokenDependency  = "broken-dependency"
)

// CheckHealth lists health findings, most severe first.
func CheckHealth(snap *model.Snapshot, opts Options) []Finding {
	opts = opts.withDefaults(snap)
	var out []Finding
	add := func(sev Severity, rule, path, msg string) {
		out = append(out, Finding{Severity: sev, Rule: rule, Path: path, Message: msg})
	}

	for _, f := range snap.Instructions {
		if strings.TrimSpace(f.Content) == "" {
			add(SeverityWarning, RuleEmptyInstructions, f.Path, i18n.T("health.empty"))
			continue
		}
		if f.Tokens > opts.TokenBudget {
			add(SeverityWarning, RuleOverBudget, f.Path, i18n.T("health.over_budget", f.Tokens, opts.TokenBudget))
		}
		if !f.ModTime.IsZero() && opts.Now.Sub(f.ModTime) > opts.StaleAfter {
			days := int(opts.Now.Sub(f.ModTime).Hours() / 24)
			add(SeverityInfo, RuleStale, f.Path, i18n.T("health.stale", days))
		}
	}

	for _, c := range snap.Commands {
		if c.Kind == model.KindAgent {
			continue
		}
		if strings.TrimSpace(c.Description) == "" {
			add(SeverityWarning, RuleNoDescription, c.Path, i18n.T("health.no_description", c.Invocation()))
		}
		if c.Kind == model.KindSkill && fmString(c.Frontmatter, "name") == "" {
			add(SeverityWarning, RuleSkillName, c.Path, i18n.T("health.skill_name", c.Name))
		}
	}

	for _, is := range snap.Issues {
		if strings.EqualFold(filepath.Ext(is.Path), ".json") {
			add(SeverityError, RuleBadJSON, is.Path, i18n.T("health.bad_json", is.Message))
			continue
		}
		add(SeverityWarning, RuleScanIssue, is.Path, is.Message)
	}

	for _, p := range snap.Plugins {
		if p.InstallPath == "" || !opts.Exists(p.InstallPath) {
			add(SeverityError, RulePluginMissing, p.InstallPath, i18n.T("health.plugin_missing", p.ID()))
		}
	}

	for _, j := range snap.CronJobs {
		if j.Enabled {
			continue
		}
		if script := scriptPath(j.Command, opts.Home); script != "" && !opts.Exists(script) {
			add(SeverityWarning, RuleCronScript, script, i18n.T("health.cron_script", j.Schedule, script))
		}
	}

	for _, e := range BuildGraph(snap, opts.Exists).Broken() {
		add(SeverityWarning, RuleBrokenDependency, strings.SplitN(e.From, ":", 2)[1], i18n.T("health.broken_dep", e.To))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity.rank() > out[j].Severity.rank() })
	return out
}

// scriptPath returns the first absolute or home-relative path a command
// runs, skipping leading environment assignments and cd prefixes. Home
// relative paths are only resolved when home is known.
func scriptPath(command, home string) string {
	for _, part := range strings.FieldsFunc(command, func(r rune) bool { return r == ';' || r == '&' || r == '|' }) {
		fields := strings.Fields(part)
		for len(fields) > 0 && strings.Contains(fields[0], "=") {
			fields = fields[1:]
		}
		if len(fields) == 0 || fields[0] == "cd" {
			continue
		}
		exe := strings.Trim(fields[0], `"'`)
		if rest, ok := strings.CutPrefix(exe, "$HOME/"); ok {
			exe = "~/" + rest
		}
		if strings.HasPrefix(exe, "~/") {
			if home == "" {
				return ""
			}
			return layout.Expand(home, exe)
		}
		if filepath.IsAbs(exe) {
			return exe
		}
		return ""
	}
	return ""
}

func fmString(fm map[string]any, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
