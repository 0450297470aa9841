// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package analyzer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/model"
)

// ConflictKind classifies a conflict.
type ConflictKind string

const (
	ConflictDirective  ConflictKind = "directive"
	ConflictStyle      ConflictKind = "style"
	ConflictPermission ConflictKind = "permission"
	ConflictShadow     ConflictKind = "shadow"
	ConflictOverride   ConflictKind = "override"
	ConflictCron       ConflictKind = "cron"
)

// Conflict is a pair (or more) of settings that disagree.
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	Subject string       `json:"subject"`
	Message string       `json:"message"`
	Sources []string     `json:"sources"`
}

var (
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	alwaysNever   = regexp.MustCompile(`(?i)\b(always|never)\s+([^.;,:!?]+)`)
	negativeUse   = regexp.MustCompile(`(?i)\b(?:do not|don't|dont|avoid)\s+(?:using|use)\s+([^.;,:!?]+)`)
	positiveUse   = regexp.MustCompile(`(?i)^(?:please\s+)?(?:use|prefer)\s+([^.;,:!?]+)`)
	negationWords = regexp.MustCompile(`(?i)\b(never|not|don't|dont|avoid|no)\b`)
)

type directive struct {
	key      string
	positive bool
	source   string
}

// parseDirective extracts the normalised subject of an always/never or
// use/don't use line. ok is false for lines that are neither.
func parseDirective(line string) (key string, positive, ok bool) {
	text := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
	text = strings.Trim(text, "*_ ")
	if text == "" || strings.HasPrefix(text, "#") {
		return "", false, false
	}
	if m := alwaysNever.FindStringSubmatch(text); m != nil {
		return normalise(m[2]), strings.EqualFold(m[1], "always"), true
	}
	if m := negativeUse.FindStringSubmatch(text); m != nil {
		return "use " + normalise(m[1]), false, true
	}
	if m := positiveUse.FindStringSubmatch(text); m != nil {
		return "use " + normalise(m[1]), true, true
	}
	return "", false, false
}

func normalise(s string) string {
	s = strings.ToLower(s)
	s = strings.Trim(s, " \t`*_\"'")
	return strings.Join(strings.Fields(s), " ")
}

type styleOption struct {
	group, option string
	re            *regexp.Regexp
}

var styleOptions = []styleOption{
	{"indentation", "tabs", regexp.MustCompile(`(?i)\btabs\b`)},
	{"indentation", "spaces", regexp.MustCompile(`(?i)\bspaces\b`)},
	{"quotes", "single quotes", regexp.MustCompile(`(?i)\bsingle[- ]quotes?\b`)},
	{"quotes", "double quotes", regexp.MustCompile(`(?i)\bdouble[- ]quotes?\b`)},
	{"package manager", "npm", regexp.MustCompile(`(?i)\bnpm\b`)},
	{"package manager", "yarn", regexp.MustCompile(`(?i)\byarn\b`)},
	{"package manager", "pnpm", regexp.MustCompile(`(?i)\bpnpm\b`)},
}

// DetectConflicts runs every conflict heuristic. Results are sorted by kind,
// subject and sources.
func DetectConflicts(snap *model.Snapshot) []Conflict {
	var out []Conflict
	out = append(out, directiveConflicts(snap)...)
	out = append(out, styleConflicts(snap)...)
	out = append(out, permissionConflicts(snap)...)
	out = append(out, shadowConflicts(snap)...)
	out = append(out, overrideConflicts(snap)...)
	out = append(out, cronConflicts(snap)...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if si, sj := strings.Join(out[i].Sources, "\n"), strings.Join(out[j].Sources, "\n"); si != sj {
			return si < sj
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func directiveConflicts(snap *model.Snapshot) []Conflict {
	pos := map[string]map[string]bool{}
	neg := map[string]map[string]bool{}
	for _, f := range snap.Instructions {
		for _, line := range contentLines(f.Content) {
			key, positive, ok := parseDirective(line)
			if !ok || key == "" || key == "use" {
				continue
			}
			target := neg
			if positive {
				target = pos
			}
			if target[key] == nil {
				target[key] = map[string]bool{}
			}
			target[key][f.Path] = true
		}
	}
	var out []Conflict
	for key, sources := range pos {
		against, ok := neg[key]
		if !ok {
			continue
		}
		out = append(out, Conflict{
			Kind:    ConflictDirective,
			Subject: key,
			Message: i18n.T("conflict.directive", key),
			Sources: union(sources, against),
		})
	}
	return out
}

func styleConflicts(snap *model.Snapshot) []Conflict {
	// group -> option -> sources
	seen := map[string]map[string]map[string]bool{}
	for _, f := range snap.Instructions {
		for _, line := range contentLines(f.Content) {
			if negationWords.MatchString(line) {
				continue
			}
			for _, o := range styleOptions {
				if !o.re.MatchString(line) {
					continue
				}
				if seen[o.group] == nil {
					seen[o.group] = map[string]map[string]bool{}
				}
				if seen[o.group][o.option] == nil {
					seen[o.group][o.option] = map[string]bool{}
				}
				seen[o.group][o.option][f.Path] = true
			}
		}
	}
	var out []Conflict
	for group, options := range seen {
		if len(options) < 2 {
			continue
		}
		names := make([]string, 0, len(options))
		sources := map[string]bool{}
		for name, src := range options {
			names = append(names, name)
			for s := range src {
				sources[s] = true
			}
		}
		sort.Strings(names)
		out = append(out, Conflict{
			Kind:    ConflictStyle,
			Subject: group,
			Message: i18n.T("conflict.style", group, strings.Join(names, ", ")),
			Sources: union(sources),
		})
	}
	return out
}

func permissionConflicts(snap *model.Snapshot) []Conflict {
	allow := map[string]map[string]bool{}
	deny := map[string]map[string]bool{}
	for _, st := range snap.ExistingSettings() {
		for _, r := range st.Allow {
			addSource(allow, strings.TrimSpace(r), st.Path)
		}
		for _, r := range st.Deny {
			addSource(deny, strings.TrimSpace(r), st.Path)
		}
	}
	var out []Conflict
	for rule, a := range allow {
		d, ok := deny[rule]
		if !ok {
			continue
		}
		out = append(out, Conflict{
			Kind:    ConflictPermission,
			Subject: rule,
			Message: i18n.T("conflict.permission", rule),
			Sources: union(a, d),
		})
	}
	return out
}

func shadowConflicts(snap *model.Snapshot) []Conflict {
	byName := map[string][]model.Command{}
	for _, c := range snap.Commands {
		if c.Kind == model.KindAgent {
			continue
		}
		byName[c.Invocation()] = append(byName[c.Invocation()], c)
	}
	var out []Conflict
	for name, defs := range byName {
		scopes := map[model.Scope]bool{}
		sources := map[string]bool{}
		for _, d := range defs {
			scopes[d.Scope] = true
			sources[d.Path] = true
		}
		if len(scopes) < 2 {
			continue
		}
		out = append(out, Conflict{
			Kind:    ConflictShadow,
			Subject: name,
			Message: i18n.T("conflict.shadow", name, len(scopes)),
			Sources: union(sources),
		})
	}
	return out
}

// overrideConflicts compares every local settings file with the shared file
// next to it. Arrays are merged by the assistant, so only scalar leaves are
// compared.
func overrideConflicts(snap *model.Snapshot) []Conflict {
	byPath := map[string]model.Settings{}
	for _, st := range snap.ExistingSettings() {
		byPath[st.Path] = st
	}
	var out []Conflict
	for _, local := range snap.ExistingSettings() {
		if local.Scope != model.ScopeUserLocal && local.Scope != model.ScopeProjectLocal {
			continue
		}
		sharedPath := filepath.Join(filepath.Dir(local.Path), "settings.json")
		shared, ok := byPath[sharedPath]
		if !ok || shared.Raw == nil || local.Raw == nil {
			continue
		}
		sharedLeaves := map[string]string{}
		for pair := shared.Raw.Oldest(); pair != nil; pair = pair.Next() {
			flattenScalars(pair.Key, pair.Value, sharedLeaves)
		}
		localLeaves := map[string]string{}
		for pair := local.Raw.Oldest(); pair != nil; pair = pair.Next() {
			flattenScalars(pair.Key, pair.Value, localLeaves)
		}
		keys := make([]string, 0, len(localLeaves))
		for key := range localLeaves {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			lv := localLeaves[key]
			sv, ok := sharedLeaves[key]
			if !ok || sv == lv {
				continue
			}
			out = append(out, Conflict{
				Kind:    ConflictOverride,
				Subject: key,
				Message: i18n.T("conflict.override", key, sv, lv),
				Sources: []string{shared.Path, local.Path},
			})
		}
	}
	return out
}

func flattenScalars(prefix string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flattenScalars(prefix+"."+k, child, out)
		}
	case []any:
		// merged, not overridden
	default:
		data, err := json.Marshal(t)
		if err != nil {
			out[prefix] = fmt.Sprint(t)
			return
		}
		out[prefix] = string(data)
	}
}

func cronConflicts(snap *model.Snapshot) []Conflict {
	groups := map[string][]model.CronJob{}
	for _, j := range snap.CronJobs {
		if !j.Enabled {
			continue
		}
		key := j.Schedule + "\x00" + strings.Join(strings.Fields(j.Command), " ")
		groups[key] = append(groups[key], j)
	}
	var out []Conflict
	for _, jobs := range groups {
		if len(jobs) < 2 {
			continue
		}
		var sources []string
		for _, j := range jobs {
			sources = append(sources, fmt.Sprintf("crontab:%d", j.Index+1))
		}
		subject := jobs[0].Schedule + " " + jobs[0].Command
		out = append(out, Conflict{
			Kind:    ConflictCron,
			Subject: subject,
			Message: i18n.T("conflict.cron", len(jobs), jobs[0].Command),
			Sources: sources,
		})
	}
	return out
}

func contentLines(content string) []string {
	var out []string
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if !inFence {
			out = append(out, line)
		}
	}
	return out
}

func addSource(m map[string]map[string]bool, key, source string) {
	if key == "" {
		return
	}
	if m[key] == nil {
		m[key] = map[string]bool{}
	}
	m[key][source] = true
}

func union(sets ...map[string]bool) []string {
	all := map[string]bool{}
	for _, s := range sets {
		for k := range s {
			all[k] = true
		}
	}
	out := make([]string, 0, len(all))
	for k := range all {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
