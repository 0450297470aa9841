// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package layout knows where the assistant keeps its configuration. Every
// other package asks a Layout for paths instead of joining them itself, so
// tests can point the whole application at a temporary tree.
package layout // import "github.com/iclaudius/claudius/internal/layout"

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known file and directory names inside the configuration tree.
const (
	InstructionsFile      = "CLAUDE.md"
	LocalInstructionsFile = "CLAUDE.local.md"
	SettingsFile          = "settings.json"
	SettingsLocalFile     = "settings.local.json"
	MCPFile               = ".mcp.json"
	GlobalStateFile       = ".claude.json"
	SkillFile             = "SKILL.md"
	ChangeLogFile         = "autonomous-changes.json"
	ProjectConfigDir      = ".claude"

	commandsDir     = "commands"
	skillsDir       = "skills"
	agentsDir       = "agents"
	pluginsDir      = "plugins"
	pluginsManifest = "installed_plugins.json"
	marketplaces    = "known_marketplaces.json"
)

// DefaultSkipDirs are never descended into during project discovery.
var DefaultSkipDirs = []string{".git", "node_modules", "vendor", ".venv", "venv", "dist", "build", "target", "__pycache__"}

// Layout describes the configuration tree of one user.
type Layout struct {
	Home         string
	ConfigDir    string
	ProjectRoots []string
	MaxDepth     int
	SkipDirs     []string
}

// New builds a Layout for home. An empty configDir means "<home>/.claude".
func New(home, configDir string, projectRoots []string, maxDepth int) Layout {
	if configDir == "" {
		configDir = filepath.Join(home, ProjectConfigDir)
	}
	roots := make([]string, 0, len(projectRoots))
	for _, r := range projectRoots {
		if r = strings.TrimSpace(r); r != "" {
			roots = append(roots, Expand(home, r))
		}
	}
	if maxDepth <= 0 {
		maxDepth = 4
	}
	return Layout{
		Home:         home,
		ConfigDir:    Expand(home, configDir),
		ProjectRoots: roots,
		MaxDepth:     maxDepth,
		SkipDirs:     DefaultSkipDirs,
	}
}

// Default returns the Layout for the current user with no project roots.
func Default() (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("could not determine home directory: %w", err)
	}
	return New(home, "", nil, 0), nil
}

// Expand replaces a leading "~" with home and cleans the path.
func Expand(home, p string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return filepath.Clean(p)
}

// GlobalInstructions lists the fixed instruction file candidates.
func (l Layout) GlobalInstructions() []string {
	return []string{
		filepath.Join(l.ConfigDir, InstructionsFile),
		filepath.Join(l.Home, InstructionsFile),
		filepath.Join(l.Home, LocalInstructionsFile),
	}
}

func (l Layout) CommandsDir() string { return filepath.Join(l.ConfigDir, commandsDir) }
func (l Layout) SkillsDir() string   { return filepath.Join(l.ConfigDir, skillsDir) }
func (l Layout) AgentsDir() string   { return filepath.Join(l.ConfigDir, agentsDir) }

// PluginManifest is the JSON file listing installed plugins.
func (l Layout) PluginManifest() string {
	return filepath.Join(l.ConfigDir, pluginsDir, pluginsManifest)
}

// MarketplaceManifest is the JSON file listing known plugin marketplaces.
func (l Layout) MarketplaceManifest() string {
	return filepath.Join(l.ConfigDir, pluginsDir, marketplaces)
}

// UserSettings returns the shared and local user settings paths.
func (l Layout) UserSettings() (shared, local string) {
	return filepath.Join(l.ConfigDir, SettingsFile), filepath.Join(l.ConfigDir, SettingsLocalFile)
}

// GlobalState is the assistant's own state file that carries mcpServers.
func (l Layout) GlobalState() string {
	return filepath.Join(l.Home, GlobalStateFile)
}

// ChangeLog is the autonomous change log file.
func (l Layout) ChangeLog() string {
	return filepath.Join(l.ConfigDir, ChangeLogFile)
}

// ProjectCommandsDir is the commands directory of a project root.
func ProjectCommandsDir(project string) string {
	return filepath.Join(project, ProjectConfigDir, commandsDir)
}

// ProjectSettings returns the shared and local settings of a project.
func ProjectSettings(project string) (shared, local string) {
	dir := filepath.Join(project, ProjectConfigDir)
	return filepath.Join(dir, SettingsFile), filepath.Join(dir, SettingsLocalFile)
}

// ShouldSkip reports whether a directory named name is excluded from
// discovery. Hidden directories are skipped except the project config dir.
func (l Layout) ShouldSkip(name string) bool {
	if name == ProjectConfigDir {
		return false
	}
	if strings.HasPrefix(name, ".") && name != "." {
		return true
	}
	for _, s := range l.SkipDirs {
		if s == name {
			return true
		}
	}
	return false
}

// IsInstructionFile reports whether path names an instruction document.
func IsInstructionFile(path string) bool {
	base := filepath.Base(path)
	return base == InstructionsFile || base == LocalInstructionsFile
}

// Within reports whether path lies inside dir.
func Within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
