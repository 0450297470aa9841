// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package analyzer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
)

// Safety rule identifiers.
const (
	RuleBypass        = "bypass-permissions"
	RuleWildcard      = "wildcard-allow"
	RuleDangerous     = "dangerous-allow"
	RuleNoDeny        = "no-deny-rules"
	RuleSecret        = "literal-secret"
	RuleRiskyHook     = "risky-hook"
	RuleUnattendedRun = "unattended-cron"
)

// rule describes the deduction of one finding and the most a rule may
// deduct in total.
type rule struct {
	each, cap int
}

var rules = map[string]rule{
	RuleBypass:        {each: 25, cap: 25},
	RuleWildcard:      {each: 15, cap: 15},
	RuleDangerous:     {each: 10, cap: 30},
	RuleNoDeny:        {each: 5, cap: 5},
	RuleSecret:        {each: 10, cap: 30},
	RuleRiskyHook:     {each: 5, cap: 15},
	RuleUnattendedRun: {each: 15, cap: 15},
}

// SafetyFinding is one deduction from the safety score.
type SafetyFinding struct {
	Rule      string `json:"rule"`
	Path      string `json:"path,omitempty"`
	Message   string `json:"message"`
	Deduction int    `json:"deduction"`
}

// Safety is the scored result.
type Safety struct {
	Score    int             `json:"score"`
	Grade    string          `json:"grade"`
	Findings []SafetyFinding `json:"findings"`
}

// Grade maps a score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	}
	return "F"
}

var (
	skipPermissions = regexp.MustCompile(`--dangerously-skip-permissions|bypassPermissions`)
	dangerousRules  = []*regexp.Regexp{
		regexp.MustCompile(`\brm\s+-[a-zA-Z]*[rR][a-zA-Z]*f|\brm\s+-[a-zA-Z]*f[a-zA-Z]*[rR]`),
		regexp.MustCompile(`\bsudo\b`),
		regexp.MustCompile(`\bchmod\s+(-R\s+)?777\b`),
		regexp.MustCompile(`\b(curl|wget)\b[^|]*\|\s*(ba|z)?sh\b`),
		regexp.MustCompile(`\bgit\s+push\s+(.*\s)?(--force|-f)\b`),
	}
	networkFetch = regexp.MustCompile(`\b(curl|wget|nc|ncat)\b`)
	removal      = regexp.MustCompile(`\brm\s`)
	secretName   = regexp.MustCompile(`(?i)(KEY|TOKEN|SECRET|PASSWORD|PASSWD)`)
	reference    = regexp.MustCompile(`^\$\{?[A-Za-z_][A-Za-z0-9_]*\}?$|^(op|vault|env|keychain)://`)
)

// ScoreSafety starts at 100 and deducts per finding, each rule capped.
func ScoreSafety(snap *model.Snapshot) Safety {
	var findings []SafetyFinding
	used := map[string]int{}
	add := func(ruleID, path, msg string) {
		r := rules[ruleID]
		d := r.each
		if used[ruleID]+d > r.cap {
			d = r.cap - used[ruleID]
		}
		used[ruleID] += d
		findings = append(findings, SafetyFinding{Rule: ruleID, Path: path, Message: msg, Deduction: d})
	}

	hasDeny := false
	for _, st := range snap.ExistingSettings() {
		if len(st.Deny) > 0 {
			hasDeny = true
		}
		if st.PermissionMode == "bypassPermissions" {
			add(RuleBypass, st.Path, i18n.T("safety.bypass_mode"))
		}
		for _, a := range st.Allow {
			a = strings.TrimSpace(a)
			if isWildcardAllow(a) {
				add(RuleWildcard, st.Path, i18n.T("safety.wildcard", a))
				continue
			}
			for _, re := range dangerousRules {
				if re.MatchString(a) {
					add(RuleDangerous, st.Path, i18n.T("safety.dangerous", a))
					break
				}
			}
		}
		for _, k := range sortedKeys(st.Env) {
			if isLiteralSecret(k, st.Env[k]) {
				add(RuleSecret, st.Path, i18n.T("safety.secret_env", k))
			}
		}
		for _, h := range st.Hooks {
			if skipPermissions.MatchString(h.Command) {
				add(RuleBypass, st.Path, i18n.T("safety.bypass_hook", h.Event))
				continue
			}
			if networkFetch.MatchString(h.Command) || removal.MatchString(h.Command) {
				add(RuleRiskyHook, st.Path, i18n.T("safety.risky_hook", h.Event, h.Command))
			}
		}
	}
	if !hasDeny {
		add(RuleNoDeny, "", i18n.T("safety.no_deny"))
	}

	for _, srv := range snap.MCPServers {
		for _, k := range sortedKeys(srv.Env) {
			if isLiteralSecret(k, srv.Env[k]) {
				add(RuleSecret, srv.Source, i18n.T("safety.secret_mcp", k, srv.Name))
			}
		}
	}

	for _, j := range snap.CronJobs {
		if !j.Enabled || !skipPermissions.MatchString(j.Command) {
			continue
		}
		where := fmt.Sprintf("crontab:%d", j.Index+1)
		add(RuleBypass, where, i18n.T("safety.bypass_cron", j.Schedule))
		if j.Assistant {
			add(RuleUnattendedRun, where, i18n.T("safety.unattended", j.Schedule))
		}
	}

	score := 100
	for _, f := range findings {
		score -= f.Deduction
	}
	if score < 0 {
		score = 0
	}
	return Safety{Score: score, Grade: Grade(score), Findings: findings}
}

func isWildcardAllow(allow string) bool {
	switch strings.ReplaceAll(allow, " ", "") {
	case "*", "Bash", "Bash(*)", "Bash(*:*)", "Bash(:*)":
		return true
	}
	return false
}

// isLiteralSecret reports whether a secret-looking name carries an inline
// value rather than a reference to another variable or a secret store.
func isLiteralSecret(name, value string) bool {
	if !secretName.MatchString(name) {
		return false
	}
	v := strings.TrimSpace(value)
	if v == "" || reference.MatchString(v) {
		return false
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
