// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the plain records Claudius builds from the local
// assistant configuration tree. The records carry no behaviour beyond small
// display helpers; they are rebuilt from disk on every refresh.
package model // import "github.com/iclaudius/claudius/internal/model"

import (
	"fmt"
	"path/filepath"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Scope identifies where a piece of configuration lives.
type Scope string

const (
	ScopeGlobal       Scope = "global"        // ~/.claude or $HOME
	ScopeProject      Scope = "project"       // checked into a project
	ScopeLocal        Scope = "local"         // *.local.* files, not shared
	ScopeUser         Scope = "user"          // ~/.claude commands, skills, agents
	ScopePlugin       Scope = "plugin"        // contributed by an installed plugin
	ScopeUserLocal    Scope = "user-local"    // ~/.claude/settings.local.json
	ScopeProjectLocal Scope = "project-local" // <project>/.claude/settings.local.json
)

// InstructionFile is a CLAUDE.md style instruction document.
type InstructionFile struct {
	Path    string    `json:"path"`
	Scope   Scope     `json:"scope"`
	Project string    `json:"project,omitempty"`
	Content string    `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Lines   int       `json:"lines"`
	Tokens  int       `json:"tokens"`
	// Imports are @path references found in the content, resolved to
	// absolute paths relative to the file's directory.
	Imports []string `json:"imports,omitempty"`
}

// Name returns a short display name for the file.
func (f InstructionFile) Name() string {
	if f.Project != "" {
		return fmt.Sprintf("%s (%s)", filepath.Base(f.Path), filepath.Base(f.Project))
	}
	return filepath.Base(f.Path)
}

// CommandKind distinguishes slash commands, skills and agents.
type CommandKind string

const (
	KindCommand CommandKind = "command"
	KindSkill   CommandKind = "skill"
	KindAgent   CommandKind = "agent"
)

// Command is a single command, skill or agent definition file.
type Command struct {
	Name         string         `json:"name"`
	Kind         CommandKind    `json:"kind"`
	Scope        Scope          `json:"scope"`
	Path         string         `json:"path"`
	Description  string         `json:"description,omitempty"`
	AllowedTools []string       `json:"allowed_tools,omitempty"`
	Model        string         `json:"model,omitempty"`
	ArgumentHint string         `json:"argument_hint,omitempty"`
	Frontmatter  map[string]any `json:"frontmatter,omitempty"`
	Body         string         `json:"-"`
	ModTime      time.Time      `json:"mod_time"`
}

// Invocation returns the string a user types to run the command.
func (c Command) Invocation() string {
	switch c.Kind {
	case KindAgent:
		return "@agent-" + c.Name
	case KindSkill:
		return c.Name
	default:
		return "/" + c.Name
	}
}

// Plugin is one installed plugin as recorded in the plugin manifest.
type Plugin struct {
	Name        string    `json:"name"`
	Marketplace string    `json:"marketplace,omitempty"`
	Version     string    `json:"version,omitempty"`
	InstallPath string    `json:"install_path,omitempty"`
	Enabled     bool      `json:"enabled"`
	InstalledAt time.Time `json:"installed_at,omitempty"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
	GitCommit   string    `json:"git_commit,omitempty"`
}

// ID returns the name@marketplace identifier used by settings.
func (p Plugin) ID() string {
	if p.Marketplace == "" {
		return p.Name
	}
	return p.Name + "@" + p.Marketplace
}

// HookCommand is one command registered for a hook event.
type HookCommand struct {
	Event   string `json:"event"`
	Matcher string `json:"matcher,omitempty"`
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// Settings is a parsed settings JSON file. Raw keeps every top-level key in
// file order so views can show keys Claudius does not model.
type Settings struct {
	Path           string                              `json:"path"`
	Scope          Scope                               `json:"scope"`
	Exists         bool                                `json:"exists"`
	Raw            *orderedmap.OrderedMap[string, any] `json:"raw,omitempty"`
	Model          string                              `json:"model,omitempty"`
	PermissionMode string                              `json:"permission_mode,omitempty"`
	Allow          []string                            `json:"allow,omitempty"`
	Deny           []string                            `json:"deny,omitempty"`
	Ask            []string                            `json:"ask,omitempty"`
	AdditionalDirs []string                            `json:"additional_dirs,omitempty"`
	Hooks          []HookCommand                       `json:"hooks,omitempty"`
	Env            map[string]string                   `json:"env,omitempty"`
	EnabledPlugins map[string]bool                     `json:"enabled_plugins,omitempty"`
}

// Keys returns the top-level keys in file order.
func (s Settings) Keys() []string {
	if s.Raw == nil {
		return nil
	}
	keys := make([]string, 0, s.Raw.Len())
	for pair := s.Raw.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// MCPServer is a Model Context Protocol server definition.
type MCPServer struct {
	Name    string            `json:"name"`
	Source  string            `json:"source"`
	Type    string            `json:"type,omitempty"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// CronJob is one job line of the user's crontab.
type CronJob struct {
	// Index is the zero-based line number inside the crontab text and is
	// the handle used by update and removal operations.
	Index     int    `json:"index"`
	Line      string `json:"line"`
	Schedule  string `json:"schedule"`
	Command   string `json:"command"`
	Comment   string `json:"comment,omitempty"`
	Enabled   bool   `json:"enabled"`
	Assistant bool   `json:"assistant"`
}

// ChangeEntry is one record of the autonomous change log.
type ChangeEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details,omitempty"`
}

// ScanIssue records an error the scanner swallowed.
type ScanIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i ScanIssue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Snapshot is the unified in-memory model of one scan.
type Snapshot struct {
	ScannedAt        time.Time         `json:"scanned_at"`
	Duration         time.Duration     `json:"duration"`
	ConfigDir        string            `json:"config_dir"`
	AssistantVersion string            `json:"assistant_version,omitempty"`
	RunningSessions  int               `json:"running_sessions"`
	Instructions     []InstructionFile `json:"instructions"`
	Commands         []Command         `json:"commands"`
	Plugins          []Plugin          `json:"plugins"`
	Settings         []Settings        `json:"settings"`
	MCPServers       []MCPServer       `json:"mcp_servers"`
	CronJobs         []CronJob         `json:"cron_jobs"`
	Changes          []ChangeEntry     `json:"changes"`
	Issues           []ScanIssue       `json:"issues,omitempty"`
}

// CommandsOfKind filters the snapshot's commands by kind.
func (s *Snapshot) CommandsOfKind(kind CommandKind) []Command {
	var out []Command
	for _, c := range s.Commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// AssistantCronJobs returns the crontab entries that run the assistant.
func (s *Snapshot) AssistantCronJobs() []CronJob {
	var out []CronJob
	for _, j := range s.CronJobs {
		if j.Assistant {
			out = append(out, j)
		}
	}
	return out
}

// ExistingSettings returns only the settings files that were found on disk.
func (s *Snapshot) ExistingSettings() []Settings {
	var out []Settings
	for _, st := range s.Settings {
		if st.Exists {
			out = append(out, st)
		}
	}
	return out
}

// AddIssue appends a swallowed error to the snapshot.
func (s *Snapshot) AddIssue(path string, err error) {
	if err == nil {
		return
	}
	s.Issues = append(s.Issues, ScanIssue{Path: path, Message: err.Error()})
}
