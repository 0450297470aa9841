// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package editor performs the few writes Claudius makes to the assistant's
// configuration: new commands, skills and agents, and edits to instruction
// files. Every successful write is recorded in the change log.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/fileutil"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
	"gopkg.in/yaml.v3"
)

var (
	// ErrExists is returned instead of overwriting a file.
	ErrExists = errors.New("already exists")
	// ErrInvalidName is returned for names outside [a-z0-9][a-z0-9-_:]*.
	ErrInvalidName = errors.New("invalid name")
	// ErrNotFound is returned for unknown targets.
	ErrNotFound = errors.New("not found")
)

// Change-log actions.
const (
	ActionCreateCommand = "create-command"
	ActionCreateSkill   = "create-skill"
	ActionCreateAgent   = "create-agent"
	ActionSaveRules     = "edit-instructions"
	ActionAppendRule    = "append-rule"
)

var validName = regexp.MustCompile(`^[a-z0-9][a-z0-9_:-]*$`)

// Auditor receives every write. The history store implements it.
type Auditor interface {
	LogAction(ctx context.Context, action, details string) error
}

// Target selects where a command, skill or agent is created. Project is
// required for ScopeProject.
type Target struct {
	Scope   model.Scope
	Project string
}

// UserTarget creates files under the user's config dir.
var UserTarget = Target{Scope: model.ScopeUser}

// ProjectTarget creates files under project/.claude.
func ProjectTarget(project string) Target {
	return Target{Scope: model.ScopeProject, Project: project}
}

// Editor writes configuration files.
type Editor struct {
	layout layout.Layout
	log    *changelog.Log
	audit  Auditor
}

// New returns an editor. log and audit may be nil.
func New(l layout.Layout, log *changelog.Log, audit Auditor) *Editor {
	return &Editor{layout: l, log: log, audit: audit}
}

// SetAuditor replaces the audit sink.
func (e *Editor) SetAuditor(a Auditor) { e.audit = a }

// ValidateName checks a command, skill or agent name.
func ValidateName(name string) error {
	if !validName.MatchString(name) || strings.Contains(name, "::") || strings.HasSuffix(name, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (e *Editor) baseDir(t Target) (string, error) {
	switch t.Scope {
	case model.ScopeUser, model.ScopeGlobal, "":
		return e.layout.ConfigDir, nil
	case model.ScopeProject:
		if t.Project == "" {
			return "", fmt.Errorf("%w: project", ErrNotFound)
		}
		return filepath.Join(t.Project, layout.ProjectConfigDir), nil
	}
	return "", fmt.Errorf("unsupported scope %q", t.Scope)
}

// CommandPath returns the file a command of that name lives in. Namespaces
// separated by ':' become subdirectories.
func (e *Editor) CommandPath(t Target, name string) (string, error) {
	base, err := e.baseDir(t)
	if err != nil {
		return "", err
	}
	parts := strings.Split(name, ":")
	parts[len(parts)-1] += ".md"
	return filepath.Join(append([]string{base, "commands"}, parts...)...), nil
}

type frontmatter struct {
	Name         string `yaml:"name,omitempty"`
	Description  string `yaml:"description,omitempty"`
	Tools        string `yaml:"tools,omitempty"`
	ArgumentHint string `yaml:"argument-hint,omitempty"`
}

func render(fm frontmatter, body string) ([]byte, error) {
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(head)
	b.WriteString("---\n")
	body = strings.TrimRight(body, "\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}

func (e *Editor) create(ctx context.Context, path, action, summary string, data []byte) (string, error) {
	if err := fileutil.WriteNew(path, data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	e.record(ctx, action, path, summary)
	return path, nil
}

// CreateCommand writes a new slash command and returns its path.
func (e *Editor) CreateCommand(ctx context.Context, t Target, name, description, body string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path, err := e.CommandPath(t, name)
	if err != nil {
		return "", err
	}
	data, err := render(frontmatter{Description: strings.TrimSpace(description)}, body)
	if err != nil {
		return "", err
	}
	return e.create(ctx, path, ActionCreateCommand, i18n.T("editor.created_command", "/"+name), data)
}

// CreateSkill writes skills/<name>/SKILL.md.
func (e *Editor) CreateSkill(ctx context.Context, t Target, name, description, body string) (string, error) {
	if err := ValidateName(name); err != nil || strings.Contains(name, ":") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	base, err := e.baseDir(t)
	if err != nil {
		return "", err
	}
	path := filepath.Join(base, "skills", name, layout.SkillFile)
	data, err := render(frontmatter{Name: name, Description: strings.TrimSpace(description)}, body)
	if err != nil {
		return "", err
	}
	return e.create(ctx, path, ActionCreateSkill, i18n.T("editor.created_skill", name), data)
}

// CreateAgent writes agents/<name>.md. tools is a list of tool names; an
// empty list inherits every tool.
func (e *Editor) CreateAgent(ctx context.Context, t Target, name, description string, tools []string, body string) (string, error) {
	if err := ValidateName(name); err != nil || strings.Contains(name, ":") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	base, err := e.baseDir(t)
	if err != nil {
		return "", err
	}
	var clean []string
	for _, tool := range tools {
		if tool = strings.TrimSpace(tool); tool != "" {
			clean = append(clean, tool)
		}
	}
	path := filepath.Join(base, "agents", name+".md")
	data, err := render(frontmatter{Name: name, Description: strings.TrimSpace(description), Tools: strings.Join(clean, ", ")}, body)
	if err != nil {
		return "", err
	}
	return e.create(ctx, path, ActionCreateAgent, i18n.T("editor.created_agent", name), data)
}

// SaveInstruction replaces an instruction file. The previous content is
// kept next to it with a .bak suffix.
func (e *Editor) SaveInstruction(ctx context.Context, path, content string) error {
	if err := e.checkInstruction(path); err != nil {
		return err
	}
	if err := e.save(path, content); err != nil {
		return err
	}
	e.record(ctx, ActionSaveRules, path, i18n.T("editor.saved", filepath.Base(path)))
	return nil
}

// AppendInstruction adds rule as a new bullet at the end of an instruction
// file, creating the file when needed.
func (e *Editor) AppendInstruction(ctx context.Context, path, rule string) error {
	if err := e.checkInstruction(path); err != nil {
		return err
	}
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return fmt.Errorf("%w: empty rule", ErrInvalidName)
	}
	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	content := string(old)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if !strings.HasPrefix(rule, "-") && !strings.HasPrefix(rule, "*") {
		rule = "- " + rule
	}
	content += rule + "\n"
	if err := e.save(path, content); err != nil {
		return err
	}
	e.record(ctx, ActionAppendRule, path, i18n.T("editor.appended", filepath.Base(path)))
	return nil
}

// checkInstruction accepts CLAUDE.md and CLAUDE.local.md files in the
// config dir, the home dir or a project under one of the roots.
func (e *Editor) checkInstruction(path string) error {
	if !filepath.IsAbs(path) || !layout.IsInstructionFile(path) {
		return fmt.Errorf("%w: %s is not an instruction file", ErrNotFound, path)
	}
	for _, g := range e.layout.GlobalInstructions() {
		if filepath.Clean(g) == filepath.Clean(path) {
			return nil
		}
	}
	for _, root := range e.layout.ProjectRoots {
		if layout.Within(root, path) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is outside the project roots", ErrNotFound, path)
}

func (e *Editor) save(path, content string) error {
	if old, err := os.ReadFile(path); err == nil {
		if err := fileutil.WriteFileAtomic(path+".bak", old); err != nil {
			return fmt.Errorf("backup %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(content)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// record never fails the write it describes; problems are logged.
func (e *Editor) record(ctx context.Context, action, target, summary string) {
	if e.log != nil {
		if err := e.log.Record(action, target, summary); err != nil {
			logging.Warnf("change log: %v", err)
		}
	}
	if e.audit != nil {
		if err := e.audit.LogAction(ctx, action, target); err != nil {
			logging.Warnf("history audit: %v", err)
		}
	}
}
