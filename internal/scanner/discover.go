// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/model"
)

// DiscoverProjects walks every project root up to the layout's depth and
// returns the directories that carry assistant configuration: an instruction
// file, a .claude directory or a .mcp.json. The home directory is never a
// project; its files are covered by the global scan.
func DiscoverProjects(ctx context.Context, l layout.Layout, snap *model.Snapshot) []string {
	found := map[string]bool{}
	for _, root := range l.ProjectRoots {
		root = filepath.Clean(root)
		if fi, err := os.Stat(root); err != nil || !fi.IsDir() {
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				snap.AddIssue(root, err)
			}
			continue
		}
		rootDepth := strings.Count(root, string(filepath.Separator))

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				// Unreadable subtrees are skipped, the walk goes on.
				if path != root {
					snap.AddIssue(path, err)
					if d != nil && d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
				return err
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				name := d.Name()
				if l.ShouldSkip(name) {
					return filepath.SkipDir
				}
				if name == layout.ProjectConfigDir {
					found[filepath.Dir(path)] = true
					return filepath.SkipDir
				}
				if strings.Count(path, string(filepath.Separator))-rootDepth >= l.MaxDepth {
					return filepath.SkipDir
				}
				return nil
			}

			switch d.Name() {
			case layout.InstructionsFile, layout.LocalInstructionsFile, layout.MCPFile:
				found[filepath.Dir(path)] = true
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			snap.AddIssue(root, err)
		}
	}

	home := filepath.Clean(l.Home)
	projects := make([]string, 0, len(found))
	for dir := range found {
		if dir == home || dir == filepath.Clean(l.ConfigDir) {
			continue
		}
		projects = append(projects, dir)
	}
	sort.Strings(projects)
	return projects
}
