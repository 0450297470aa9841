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
	"strings"
	"time"

	"github.com/iclaudius/claudius/internal/model"
)

// pluginRecord is one install entry in installed_plugins.json.
type pluginRecord struct {
	Version      string `json:"version"`
	InstallPath  string `json:"installPath"`
	InstalledAt  string `json:"installedAt"`
	LastUpdated  string `json:"lastUpdated"`
	GitCommitSha string `json:"gitCommitSha"`
	Scope        string `json:"scope"`
}

// ParsePluginManifest decodes both manifest shapes:
//
//	{"version": 2, "plugins": {"name@market": [{...}, ...]}}
//	{"version": 1, "plugins": {"name@market": {...}}}
//
// A manifest without a "plugins" key is treated as the bare v1 map.
func ParsePluginManifest(data []byte) ([]model.Plugin, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("plugin manifest: %w", err)
	}

	entries := top
	if raw, ok := top["plugins"]; ok {
		entries = nil
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("plugin manifest plugins: %w", err)
		}
	} else {
		delete(entries, "version")
	}

	var out []model.Plugin
	for id, raw := range entries {
		rec, err := decodePluginRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", id, err)
		}
		name, market, _ := strings.Cut(id, "@")
		out = append(out, model.Plugin{
			Name:        name,
			Marketplace: market,
			Version:     rec.Version,
			InstallPath: rec.InstallPath,
			Enabled:     true,
			InstalledAt: parseTime(rec.InstalledAt),
			LastUpdated: parseTime(rec.LastUpdated),
			GitCommit:   rec.GitCommitSha,
		})
	}
	return out, nil
}

// decodePluginRecord accepts a single record or a list of installs. For a
// list the most recently updated install wins.
func decodePluginRecord(raw json.RawMessage) (pluginRecord, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var list []pluginRecord
		if err := json.Unmarshal(raw, &list); err != nil {
			return pluginRecord{}, err
		}
		var best pluginRecord
		for i, r := range list {
			if i == 0 || parseTime(r.LastUpdated).After(parseTime(best.LastUpdated)) {
				best = r
			}
		}
		return best, nil
	}
	var rec pluginRecord
	err := json.Unmarshal(raw, &rec)
	return rec, err
}

// parseTime reads an RFC 3339 timestamp. Anything else is the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Scanner) scanPlugins(snap *model.Snapshot) {
	path := s.layout.PluginManifest()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			snap.AddIssue(path, err)
		}
		return
	}
	plugins, err := ParsePluginManifest(data)
	if err != nil {
		snap.AddIssue(path, err)
		return
	}

	// Later settings files override earlier ones; an explicit false
	// disables the plugin.
	enabled := map[string]bool{}
	for _, st := range snap.Settings {
		for id, on := range st.EnabledPlugins {
			enabled[id] = on
		}
	}
	for i := range plugins {
		if on, ok := enabled[plugins[i].ID()]; ok {
			plugins[i].Enabled = on
		}
	}
	snap.Plugins = plugins
}
