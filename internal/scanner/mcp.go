// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/model"
)

type mcpServerDoc struct {
	Type    string         `json:"type"`
	Command string         `json:"command"`
	Args    []string       `json:"args"`
	URL     string         `json:"url"`
	Env     map[string]any `json:"env"`
}

type mcpDoc struct {
	MCPServers map[string]mcpServerDoc `json:"mcpServers"`
	Projects   map[string]struct {
		MCPServers map[string]mcpServerDoc `json:"mcpServers"`
	} `json:"projects"`
}

// ParseMCP reads the mcpServers of a .mcp.json or of the global state file.
// Servers of the global file's per-project sections get the project path as
// source.
func ParseMCP(source string, data []byte) ([]model.MCPServer, error) {
	var doc mcpDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mcp servers: %w", err)
	}
	out := convertServers(source, doc.MCPServers)
	projects := make([]string, 0, len(doc.Projects))
	for p := range doc.Projects {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	for _, p := range projects {
		out = append(out, convertServers(p, doc.Projects[p].MCPServers)...)
	}
	return out, nil
}

func convertServers(source string, servers map[string]mcpServerDoc) []model.MCPServer {
	names := make([]string, 0, len(servers))
	for n := range servers {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]model.MCPServer, 0, len(names))
	for _, n := range names {
		d := servers[n]
		srv := model.MCPServer{
			Name:    n,
			Source:  source,
			Type:    d.Type,
			Command: d.Command,
			Args:    d.Args,
			URL:     d.URL,
		}
		if srv.Type == "" {
			srv.Type = "stdio"
			if d.URL != "" {
				srv.Type = "http"
			}
		}
		if len(d.Env) > 0 {
			srv.Env = make(map[string]string, len(d.Env))
			for k, v := range d.Env {
				srv.Env[k] = fmt.Sprint(v)
			}
		}
		out = append(out, srv)
	}
	return out
}

func (s *Scanner) readMCP(path, source string, snap *model.Snapshot) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			snap.AddIssue(path, err)
		}
		return
	}
	servers, err := ParseMCP(source, data)
	if err != nil {
		snap.AddIssue(path, err)
		return
	}
	snap.MCPServers = append(snap.MCPServers, servers...)
}

func (s *Scanner) scanMCP(projects []string, snap *model.Snapshot) {
	s.readMCP(s.layout.GlobalState(), string(model.ScopeUser), snap)
	for _, p := range projects {
		s.readMCP(filepath.Join(p, layout.MCPFile), p, snap)
	}
}
