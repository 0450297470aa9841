// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/model"
)

// importRef matches an @reference at the start of a line or after
// whitespace. Email addresses never match since the @ follows a letter.
var importRef = regexp.MustCompile(`(?:^|\s)@([~./A-Za-z0-9_][^\s]*)`)

// readInstruction loads one instruction file. A missing file returns false
// without an issue.
func (s *Scanner) readInstruction(path string, scope model.Scope, project string, snap *model.Snapshot) (model.InstructionFile, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			snap.AddIssue(path, err)
		}
		return model.InstructionFile{}, false
	}
	if fi.IsDir() {
		return model.InstructionFile{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		snap.AddIssue(path, err)
		return model.InstructionFile{}, false
	}
	content := string(data)
	return model.InstructionFile{
		Path:    path,
		Scope:   scope,
		Project: project,
		Content: content,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
		Lines:   countLines(content),
		Tokens:  s.tokens.Count(content),
		Imports: ParseImports(content, filepath.Dir(path), s.layout.Home),
	}, true
}

func (s *Scanner) scanInstructions(projects []string, snap *model.Snapshot) {
	seen := map[string]bool{}
	add := func(path string, scope model.Scope, project string) {
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		if f, ok := s.readInstruction(clean, scope, project, snap); ok {
			snap.Instructions = append(snap.Instructions, f)
		}
	}

	for _, p := range s.layout.GlobalInstructions() {
		scope := model.ScopeGlobal
		if filepath.Base(p) == layout.LocalInstructionsFile {
			scope = model.ScopeLocal
		}
		add(p, scope, "")
	}
	for _, project := range projects {
		add(filepath.Join(project, layout.InstructionsFile), model.ScopeProject, project)
		add(filepath.Join(project, layout.ProjectConfigDir, layout.InstructionsFile), model.ScopeProject, project)
		add(filepath.Join(project, layout.LocalInstructionsFile), model.ScopeLocal, project)
	}
}

// ParseImports returns the @path references of an instruction document,
// resolved against dir. References inside code fences or inline code are
// ignored, as are agent mentions.
func ParseImports(content, dir, home string) []string {
	var out []string
	seen := map[string]bool{}
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for _, m := range importRef.FindAllStringSubmatch(stripInlineCode(line), -1) {
			ref := strings.TrimRight(m[1], ".,;:)")
			if !looksLikePath(ref) {
				continue
			}
			var abs string
			switch {
			case strings.HasPrefix(ref, "~/"):
				abs = filepath.Join(home, ref[2:])
			case filepath.IsAbs(ref):
				abs = filepath.Clean(ref)
			default:
				abs = filepath.Join(dir, ref)
			}
			if !seen[abs] {
				seen[abs] = true
				out = append(out, abs)
			}
		}
	}
	return out
}

func looksLikePath(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "agent-") {
		return false
	}
	return strings.ContainsAny(ref, "/.") || strings.HasPrefix(ref, "~")
}

var inlineCode = regexp.MustCompile("`[^`]*`")

func stripInlineCode(line string) string {
	return inlineCode.ReplaceAllString(line, "")
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
