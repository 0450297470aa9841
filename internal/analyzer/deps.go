// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package analyzer

import (
	"sort"
	"strings"

	"github.com/iclaudius/claudius/internal/model"
)

// builtinCommands ship with the assistant and never count as broken.
var builtinCommands = []string{
	"add-dir", "agents", "bashes", "bug", "clear", "compact", "config", "context",
	"cost", "doctor", "exit", "export", "help", "hooks", "ide", "init",
	"install-github-app", "login", "logout", "mcp", "memory", "model",
	"output-style", "permissions", "plugin", "pr-comments", "privacy-settings",
	"release-notes", "resume", "review", "rewind", "sandbox", "security-review",
	"status", "statusline", "terminal-setup", "todos", "upgrade", "usage", "vim",
}

// builtinAgents are always available to delegate to.
var builtinAgents = []string{"general-purpose", "explore", "plan", "statusline-setup", "output-style-setup"}

// NodeKind classifies graph nodes.
type NodeKind string

const (
	NodeFile    NodeKind = "file"
	NodeCommand NodeKind = "command"
	NodeSkill   NodeKind = "skill"
	NodeAgent   NodeKind = "agent"
	NodeMCP     NodeKind = "mcp"
)

// Node is one vertex of the dependency graph.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
	Path  string   `json:"path,omitempty"`
}

// Edge points from a document to something it references. Broken edges
// point at nothing that exists.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Broken bool   `json:"broken,omitempty"`
}

// Graph is the dependency graph of the configuration.
type Graph struct {
	Nodes  []Node     `json:"nodes"`
	Edges  []Edge     `json:"edges"`
	Cycles [][]string `json:"cycles,omitempty"`
}

// Broken returns the broken edges.
func (g Graph) Broken() []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Broken {
			out = append(out, e)
		}
	}
	return out
}

func nodeID(kind NodeKind, name string) string { return string(kind) + ":" + name }

// BuildGraph links instruction files, commands, skills, agents and MCP
// servers through the references found in their text.
func BuildGraph(snap *model.Snapshot, exists func(string) bool) Graph {
	g := Graph{}
	nodes := map[string]Node{}
	addNode := func(n Node) {
		if _, ok := nodes[n.ID]; !ok {
			nodes[n.ID] = n
		}
	}

	for _, f := range snap.Instructions {
		addNode(Node{ID: nodeID(NodeFile, f.Path), Kind: NodeFile, Label: f.Name(), Path: f.Path})
	}
	commands := map[string]string{}
	agents := map[string]string{}
	for _, c := range snap.Commands {
		switch c.Kind {
		case model.KindCommand:
			id := nodeID(NodeCommand, c.Name)
			commands[c.Name] = id
			addNode(Node{ID: id, Kind: NodeCommand, Label: c.Invocation(), Path: c.Path})
		case model.KindSkill:
			id := nodeID(NodeSkill, c.Name)
			commands[c.Name] = id
			addNode(Node{ID: id, Kind: NodeSkill, Label: c.Name, Path: c.Path})
		case model.KindAgent:
			id := nodeID(NodeAgent, strings.ToLower(c.Name))
			agents[strings.ToLower(c.Name)] = id
			addNode(Node{ID: id, Kind: NodeAgent, Label: c.Invocation(), Path: c.Path})
		}
	}
	servers := map[string]bool{}
	for _, s := range snap.MCPServers {
		servers[s.Name] = true
		addNode(Node{ID: nodeID(NodeMCP, s.Name), Kind: NodeMCP, Label: s.Name})
	}
	builtinCmd := map[string]bool{}
	for _, b := range builtinCommands {
		builtinCmd[b] = true
	}
	builtinAgent := map[string]bool{}
	for _, b := range builtinAgents {
		builtinAgent[b] = true
	}

	seen := map[Edge]bool{}
	addEdge := func(e Edge) {
		// A command that invokes itself is kept: findCycles reports it as a
		// one-node cycle.
		if (e.From == e.To && !invocable(e.From)) || seen[e] {
			return
		}
		seen[e] = true
		g.Edges = append(g.Edges, e)
	}

	link := func(from, text string) {
		r := findReferences(text)
		for _, name := range r.Commands {
			if builtinCmd[name] {
				continue
			}
			if id, ok := commands[name]; ok {
				addEdge(Edge{From: from, To: id})
			} else {
				addEdge(Edge{From: from, To: nodeID(NodeCommand, name), Broken: true})
			}
		}
		for _, name := range r.Agents {
			key := strings.ToLower(name)
			if builtinAgent[key] {
				continue
			}
			if id, ok := agents[key]; ok {
				addEdge(Edge{From: from, To: id})
			} else {
				addEdge(Edge{From: from, To: nodeID(NodeAgent, key), Broken: true})
			}
		}
		for _, name := range r.AgentHints {
			if id, ok := agents[name]; ok {
				addEdge(Edge{From: from, To: id})
			}
		}
		for _, name := range r.MCP {
			addEdge(Edge{From: from, To: nodeID(NodeMCP, name), Broken: !servers[name]})
		}
	}

	for _, f := range snap.Instructions {
		from := nodeID(NodeFile, f.Path)
		link(from, f.Content)
		for _, imp := range f.Imports {
			to := nodeID(NodeFile, imp)
			if exists(imp) {
				addNode(Node{ID: to, Kind: NodeFile, Label: imp, Path: imp})
				addEdge(Edge{From: from, To: to})
			} else {
				addEdge(Edge{From: from, To: to, Broken: true})
			}
		}
	}
	for _, c := range snap.Commands {
		var from string
		switch c.Kind {
		case model.KindCommand:
			from = nodeID(NodeCommand, c.Name)
		case model.KindSkill:
			from = nodeID(NodeSkill, c.Name)
		default:
			from = nodeID(NodeAgent, strings.ToLower(c.Name))
		}
		link(from, c.Body)
		for _, t := range c.AllowedTools {
			for _, m := range mcpRef.FindAllStringSubmatch(t, -1) {
				addEdge(Edge{From: from, To: nodeID(NodeMCP, m[1]), Broken: !servers[m[1]]})
			}
		}
	}

	for _, n := range nodes {
		g.Nodes = append(g.Nodes, n)
	}
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	g.Cycles = findCycles(g)
	return g
}

// findCycles reports cycles among commands, skills and agents. Each cycle
// is listed once, rotated to start at its smallest node ID.
func findCycles(g Graph) [][]string {
	adj := map[string][]string{}
	for _, e := range g.Edges {
		if e.Broken || !invocable(e.From) || !invocable(e.To) {
			continue
		}
		adj[e.From] = append(adj[e.From], e.To)
	}

	const (
		white = iota
		grey
		black
	)
	color := map[string]int{}
	var stack []string
	var cycles [][]string
	seen := map[string]bool{}

	var visit func(n string)
	visit = func(n string) {
		color[n] = grey
		stack = append(stack, n)
		for _, m := range adj[n] {
			switch color[m] {
			case white:
				visit(m)
			case grey:
				start := len(stack) - 1
				for stack[start] != m {
					start--
				}
				cycle := canonicalCycle(stack[start:])
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	keys := make([]string, 0, len(adj))
	for k := range adj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if color[k] == white {
			visit(k)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return strings.Join(cycles[i], ",") < strings.Join(cycles[j], ",") })
	return cycles
}

func invocable(id string) bool {
	return strings.HasPrefix(id, string(NodeCommand)+":") ||
		strings.HasPrefix(id, string(NodeSkill)+":") ||
		strings.HasPrefix(id, string(NodeAgent)+":")
}

func canonicalCycle(path []string) []string {
	min := 0
	for i := range path {
		if path[i] < path[min] {
			min = i
		}
	}
	out := make([]string, 0, len(path))
	out = append(out, path[min:]...)
	out = append(out, path[:min]...)
	return out
}
