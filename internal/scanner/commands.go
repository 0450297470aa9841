// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/model"
)

// scanCommands collects user, project and plugin commands, skills and
// agents. Plugins must already be scanned.
func (s *Scanner) scanCommands(projects []string, snap *model.Snapshot) {
	s.scanCommandDir(s.layout.CommandsDir(), model.ScopeUser, "", snap)
	s.scanSkillDir(s.layout.SkillsDir(), model.ScopeUser, "", snap)
	s.scanAgentDir(s.layout.AgentsDir(), model.ScopeUser, "", snap)

	for _, project := range projects {
		base := filepath.Join(project, layout.ProjectConfigDir)
		s.scanCommandDir(layout.ProjectCommandsDir(project), model.ScopeProject, "", snap)
		s.scanSkillDir(filepath.Join(base, "skills"), model.ScopeProject, "", snap)
		s.scanAgentDir(filepath.Join(base, "agents"), model.ScopeProject, "", snap)
	}

	for _, p := range snap.Plugins {
		if p.InstallPath == "" {
			continue
		}
		prefix := p.Name + ":"
		s.scanCommandDir(filepath.Join(p.InstallPath, "commands"), model.ScopePlugin, prefix, snap)
		s.scanSkillDir(filepath.Join(p.InstallPath, "skills"), model.ScopePlugin, prefix, snap)
		s.scanAgentDir(filepath.Join(p.InstallPath, "agents"), model.ScopePlugin, prefix, snap)
	}
}

// scanCommandDir reads dir/**/*.md. Nested directories become namespaces:
// commands/git/commit.md is "git:commit".
func (s *Scanner) scanCommandDir(dir string, scope model.Scope, prefix string, snap *model.Snapshot) {
	if !isDir(dir, snap) {
		return
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			snap.AddIssue(path, err)
			return nil
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		name := strings.ReplaceAll(filepath.ToSlash(rel), "/", ":")
		if c, ok := s.readCommand(path, prefix, name, model.KindCommand, scope, snap); ok {
			snap.Commands = append(snap.Commands, c)
		}
		return nil
	})
	if err != nil {
		snap.AddIssue(dir, err)
	}
}

// scanSkillDir reads dir/<name>/SKILL.md.
func (s *Scanner) scanSkillDir(dir string, scope model.Scope, prefix string, snap *model.Snapshot) {
	if !isDir(dir, snap) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		snap.AddIssue(dir, err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name(), layout.SkillFile)
		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				snap.AddIssue(path, err)
			}
			continue
		}
		if c, ok := s.readCommand(path, prefix, e.Name(), model.KindSkill, scope, snap); ok {
			snap.Commands = append(snap.Commands, c)
		}
	}
}

// scanAgentDir reads dir/*.md.
func (s *Scanner) scanAgentDir(dir string, scope model.Scope, prefix string, snap *model.Snapshot) {
	if !isDir(dir, snap) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		snap.AddIssue(dir, err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if c, ok := s.readCommand(path, prefix, name, model.KindAgent, scope, snap); ok {
			snap.Commands = append(snap.Commands, c)
		}
	}
}

// readCommand parses one definition file. Skills and agents take their name
// from frontmatter when it is set. prefix namespaces plugin contributions.
func (s *Scanner) readCommand(path, prefix, name string, kind model.CommandKind, scope model.Scope, snap *model.Snapshot) (model.Command, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		snap.AddIssue(path, err)
		return model.Command{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		snap.AddIssue(path, err)
		return model.Command{}, false
	}

	fm, body, err := SplitFrontmatter(string(data))
	if err != nil {
		// Keep the command; it is still invocable without valid metadata.
		snap.AddIssue(path, err)
	}

	c := model.Command{
		Name:        prefix + name,
		Kind:        kind,
		Scope:       scope,
		Path:        path,
		Frontmatter: fm,
		Body:        body,
		ModTime:     fi.ModTime(),
	}
	if fm != nil {
		if kind != model.KindCommand {
			if n := fmString(fm, "name"); n != "" {
				c.Name = prefix + n
			}
		}
		c.Description = fmString(fm, "description")
		c.Model = fmString(fm, "model")
		c.ArgumentHint = fmString(fm, "argument-hint")
		c.AllowedTools = fmList(fm, "allowed-tools")
		if len(c.AllowedTools) == 0 {
			c.AllowedTools = fmList(fm, "tools")
		}
	}
	if c.Description == "" {
		c.Description = firstProseLine(body)
	}
	return c, true
}

func isDir(path string, snap *model.Snapshot) bool {
	fi, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			snap.AddIssue(path, err)
		}
		return false
	}
	return fi.IsDir()
}
