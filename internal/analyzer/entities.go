// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/iclaudius/claudius/internal/model"
)

// EntityKind classifies a referenced name.
type EntityKind string

const (
	EntityTool    EntityKind = "tool"
	EntityCommand EntityKind = "command"
	EntityAgent   EntityKind = "agent"
	EntityMCP     EntityKind = "mcp"
	EntityImport  EntityKind = "import"
	EntityEnv     EntityKind = "env"
)

// Entity is a name referenced from one or more documents.
type Entity struct {
	Kind    EntityKind `json:"kind"`
	Name    string     `json:"name"`
	Sources []string   `json:"sources"`
}

var (
	toolRef    = regexp.MustCompile(`\b(Bash|Read|Edit|MultiEdit|Write|Glob|Grep|LS|WebFetch|WebSearch|Task|TodoWrite|NotebookEdit|NotebookRead|BashOutput|KillShell|SlashCommand)\b`)
	slashRef   = regexp.MustCompile(`(?:^|[\s(>"'])/([a-z][a-z0-9_-]*(?::[a-z0-9_-]+)*)`)
	agentRef   = regexp.MustCompile(`@agent-([A-Za-z0-9_-]+)`)
	useAgent   = regexp.MustCompile(`(?i)\buse the ([a-z0-9_-]+) (?:sub-?)?agent\b`)
	mcpRef     = regexp.MustCompile(`mcp__([A-Za-z0-9-]+(?:_[A-Za-z0-9-]+)*)__([A-Za-z0-9_-]+)`)
	envRef     = regexp.MustCompile(`\$\{?([A-Z][A-Z0-9_]+)\}?`)
	ignoredEnv = map[string]bool{"ARGUMENTS": true}
	// Top-level directories of a Unix file system. "/tmp" in prose is a
	// path, not a slash command.
	fsRoots = map[string]bool{
		"bin": true, "boot": true, "dev": true, "etc": true, "home": true, "lib": true,
		"lib64": true, "media": true, "mnt": true, "nix": true, "opt": true, "private": true,
		"proc": true, "root": true, "run": true, "sbin": true, "snap": true, "srv": true,
		"sys": true, "tmp": true, "usr": true, "var": true,
	}
)

// references are the names a document mentions.
type references struct {
	Tools    []string
	Commands []string
	Agents   []string
	// AgentHints come from prose like "use the reviewer agent"; they are
	// only trusted when such an agent exists.
	AgentHints []string
	MCP        []string
	Env        []string
}

func findReferences(text string) references {
	var r references
	for _, m := range toolRef.FindAllStringSubmatch(text, -1) {
		r.Tools = append(r.Tools, m[1])
	}
	for _, idx := range slashRef.FindAllStringSubmatchIndex(text, -1) {
		end := idx[3]
		if end < len(text) {
			next := text[end]
			if next == '/' {
				continue
			}
			if next == '.' && end+1 < len(text) && isWordByte(text[end+1]) {
				continue
			}
		}
		name := text[idx[2]:idx[3]]
		if fsRoots[name] {
			continue
		}
		r.Commands = append(r.Commands, name)
	}
	for _, m := range agentRef.FindAllStringSubmatch(text, -1) {
		r.Agents = append(r.Agents, m[1])
	}
	for _, m := range useAgent.FindAllStringSubmatch(text, -1) {
		r.AgentHints = append(r.AgentHints, strings.ToLower(m[1]))
	}
	for _, m := range mcpRef.FindAllStringSubmatch(text, -1) {
		r.MCP = append(r.MCP, m[1])
	}
	for _, m := range envRef.FindAllStringSubmatch(text, -1) {
		if !ignoredEnv[m[1]] {
			r.Env = append(r.Env, m[1])
		}
	}
	return r
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// toolName strips the argument pattern of a permission rule: "Bash(git:*)"
// is the Bash tool.
func toolName(rule string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(rule), "(")
	return strings.TrimSpace(name)
}

type entitySet map[EntityKind]map[string]map[string]bool

func (s entitySet) add(kind EntityKind, name, source string) {
	if name == "" {
		return
	}
	if s[kind] == nil {
		s[kind] = map[string]map[string]bool{}
	}
	if s[kind][name] == nil {
		s[kind][name] = map[string]bool{}
	}
	s[kind][name][source] = true
}

func (s entitySet) addRefs(r references, source string) {
	for _, t := range r.Tools {
		s.add(EntityTool, t, source)
	}
	for _, c := range r.Commands {
		s.add(EntityCommand, c, source)
	}
	for _, a := range r.Agents {
		s.add(EntityAgent, a, source)
	}
	for _, m := range r.MCP {
		s.add(EntityMCP, m, source)
	}
	for _, e := range r.Env {
		s.add(EntityEnv, e, source)
	}
}

// ExtractEntities lists every tool, command, agent, MCP server, import and
// environment variable the configuration mentions, with the files that
// mention it. Results are sorted by kind, then name.
func ExtractEntities(snap *model.Snapshot) []Entity {
	set := entitySet{}
	agents := knownAgents(snap)

	for _, f := range snap.Instructions {
		r := findReferences(f.Content)
		set.addRefs(r, f.Path)
		for _, h := range r.AgentHints {
			if agents[h] {
				set.add(EntityAgent, h, f.Path)
			}
		}
		for _, imp := range f.Imports {
			set.add(EntityImport, imp, f.Path)
		}
	}
	for _, c := range snap.Commands {
		r := findReferences(c.Body)
		set.addRefs(r, c.Path)
		for _, h := range r.AgentHints {
			if agents[h] {
				set.add(EntityAgent, h, c.Path)
			}
		}
		for _, t := range c.AllowedTools {
			if strings.HasPrefix(t, "mcp__") {
				for _, m := range mcpRef.FindAllStringSubmatch(t, -1) {
					set.add(EntityMCP, m[1], c.Path)
				}
				continue
			}
			set.add(EntityTool, toolName(t), c.Path)
		}
	}
	for _, st := range snap.ExistingSettings() {
		for _, rules := range [][]string{st.Allow, st.Deny, st.Ask} {
			for _, rule := range rules {
				if m := mcpRef.FindStringSubmatch(rule); m != nil {
					set.add(EntityMCP, m[1], st.Path)
					continue
				}
				set.add(EntityTool, toolName(rule), st.Path)
			}
		}
		for k := range st.Env {
			set.add(EntityEnv, k, st.Path)
		}
	}

	var out []Entity
	for kind, names := range set {
		for name, sources := range names {
			e := Entity{Kind: kind, Name: name}
			for s := range sources {
				e.Sources = append(e.Sources, s)
			}
			sort.Strings(e.Sources)
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func knownAgents(snap *model.Snapshot) map[string]bool {
	out := map[string]bool{}
	for _, a := range snap.CommandsOfKind(model.KindAgent) {
		out[strings.ToLower(a.Name)] = true
	}
	for _, b := range builtinAgents {
		out[strings.ToLower(b)] = true
	}
	return out
}
