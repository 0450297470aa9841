// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package analyzer

import "github.com/iclaudius/claudius/internal/model"

// Coverage categories in display order.
const (
	CoverGlobalInstructions  = "global_instructions"
	CoverProjectInstructions = "project_instructions"
	CoverCommands            = "commands"
	CoverSkills              = "skills"
	CoverAgents              = "agents"
	CoverPlugins             = "plugins"
	CoverPermissions         = "permissions"
	CoverHooks               = "hooks"
	CoverMCP                 = "mcp_servers"
	CoverScheduled           = "scheduled_jobs"
)

// CoverageItem is one category.
type CoverageItem struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Configured bool   `json:"configured"`
}

// Coverage is the share of categories with at least one item.
type Coverage struct {
	Items   []CoverageItem `json:"items"`
	Percent int            `json:"percent"`
}

// MeasureCoverage counts items per category.
func MeasureCoverage(snap *model.Snapshot) Coverage {
	var global, project, perms, hooks int
	for _, f := range snap.Instructions {
		if f.Scope == model.ScopeGlobal {
			global++
		} else {
			project++
		}
	}
	for _, st := range snap.ExistingSettings() {
		perms += len(st.Allow) + len(st.Deny) + len(st.Ask)
		hooks += len(st.Hooks)
	}

	counts := []struct {
		cat string
		n   int
	}{
		{CoverGlobalInstructions, global},
		{CoverProjectInstructions, project},
		{CoverCommands, len(snap.CommandsOfKind(model.KindCommand))},
		{CoverSkills, len(snap.CommandsOfKind(model.KindSkill))},
		{CoverAgents, len(snap.CommandsOfKind(model.KindAgent))},
		{CoverPlugins, len(snap.Plugins)},
		{CoverPermissions, perms},
		{CoverHooks, hooks},
		{CoverMCP, len(snap.MCPServers)},
		{CoverScheduled, len(snap.AssistantCronJobs())},
	}

	c := Coverage{}
	configured := 0
	for _, item := range counts {
		ok := item.n > 0
		if ok {
			configured++
		}
		c.Items = append(c.Items, CoverageItem{Category: item.cat, Count: item.n, Configured: ok})
	}
	c.Percent = configured * 100 / len(counts)
	return c
}
