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
	"sort"

	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/model"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// settingsDoc is the typed subset of a settings file Claudius reads.
type settingsDoc struct {
	Model       string `json:"model"`
	Permissions struct {
		Allow                 []string `json:"allow"`
		Deny                  []string `json:"deny"`
		Ask                   []string `json:"ask"`
		DefaultMode           string   `json:"defaultMode"`
		AdditionalDirectories []string `json:"additionalDirectories"`
	} `json:"permissions"`
	Hooks          map[string][]hookGroup `json:"hooks"`
	Env            map[string]any         `json:"env"`
	EnabledPlugins map[string]bool        `json:"enabledPlugins"`
}

type hookGroup struct {
	Matcher string `json:"matcher"`
	Hooks   []struct {
		Type    string `json:"type"`
		Command string `json:"command"`
		Timeout int    `json:"timeout"`
	} `json:"hooks"`
}

// ParseSettings decodes a settings file. Top-level key order is preserved in
// Raw.
func ParseSettings(path string, scope model.Scope, data []byte) (model.Settings, error) {
	st := model.Settings{Path: path, Scope: scope, Exists: true}

	raw := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, raw); err != nil {
		return st, fmt.Errorf("settings: %w", err)
	}
	st.Raw = raw

	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return st, fmt.Errorf("settings: %w", err)
	}
	st.Model = doc.Model
	st.PermissionMode = doc.Permissions.DefaultMode
	st.Allow = doc.Permissions.Allow
	st.Deny = doc.Permissions.Deny
	st.Ask = doc.Permissions.Ask
	st.AdditionalDirs = doc.Permissions.AdditionalDirectories
	st.EnabledPlugins = doc.EnabledPlugins

	if len(doc.Env) > 0 {
		st.Env = make(map[string]string, len(doc.Env))
		for k, v := range doc.Env {
			st.Env[k] = fmt.Sprint(v)
		}
	}

	events := make([]string, 0, len(doc.Hooks))
	for ev := range doc.Hooks {
		events = append(events, ev)
	}
	sort.Strings(events)
	for _, ev := range events {
		for _, g := range doc.Hooks[ev] {
			for _, h := range g.Hooks {
				st.Hooks = append(st.Hooks, model.HookCommand{
					Event:   ev,
					Matcher: g.Matcher,
					Type:    h.Type,
					Command: h.Command,
					Timeout: h.Timeout,
				})
			}
		}
	}
	return st, nil
}

func (s *Scanner) readSettings(path string, scope model.Scope, snap *model.Snapshot) model.Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			snap.AddIssue(path, err)
		}
		return model.Settings{Path: path, Scope: scope}
	}
	st, err := ParseSettings(path, scope, data)
	if err != nil {
		snap.AddIssue(path, err)
		st.Exists = true
	}
	return st
}

// scanSettings reads the user pair and the settings pair of every project.
// Missing files are kept with Exists=false so views can offer to create
// them.
func (s *Scanner) scanSettings(projects []string, snap *model.Snapshot) {
	shared, local := s.layout.UserSettings()
	snap.Settings = append(snap.Settings,
		s.readSettings(shared, model.ScopeUser, snap),
		s.readSettings(local, model.ScopeUserLocal, snap),
	)
	for _, p := range projects {
		shared, local := layout.ProjectSettings(p)
		for _, item := range []struct {
			path  string
			scope model.Scope
		}{{shared, model.ScopeProject}, {local, model.ScopeProjectLocal}} {
			st := s.readSettings(item.path, item.scope, snap)
			if st.Exists {
				snap.Settings = append(snap.Settings, st)
			}
		}
	}
}
