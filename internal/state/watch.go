// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/iclaudius/claudius/internal/layout"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce collapses bursts of file events into one refresh.
const DefaultDebounce = 500 * time.Millisecond

// WatchDirs lists the directories worth watching: the config dir and its
// commands, skills, agents and plugins subdirectories, plus the directory
// of every instruction and settings file of the current snapshot.
func (d *Dashboard) WatchDirs(l layout.Layout) []string {
	set := map[string]bool{}
	add := func(dir string) {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			set[filepath.Clean(dir)] = true
		}
	}
	add(l.ConfigDir)
	add(l.CommandsDir())
	add(l.SkillsDir())
	add(l.AgentsDir())
	add(filepath.Dir(l.PluginManifest()))

	if snap := d.Current().Snapshot; snap != nil {
		for _, f := range snap.Instructions {
			add(filepath.Dir(f.Path))
		}
		for _, st := range snap.Settings {
			add(filepath.Dir(st.Path))
		}
		for _, c := range snap.Commands {
			add(filepath.Dir(c.Path))
		}
	}
	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// relevant filters out editor swap files, our own temp files and anything
// that is not markdown or JSON.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") && strings.Contains(base, ".tmp-") {
		return false
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".bak") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".json":
		return true
	}
	return false
}

// Watch refreshes the dashboard whenever a relevant file under dirs
// changes, at most once per debounce interval. It blocks until ctx is done.
func (d *Dashboard) Watch(ctx context.Context, dirs []string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	watched := 0
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Warnf("watch %s: %v", dir, err)
			}
			continue
		}
		watched++
	}
	logging.Debugf("watching %d directories", watched)

	fire := make(chan struct{}, 1)
	var timer clockwork.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			logging.Debugf("change: %s %s", ev.Op, ev.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = d.clock.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("watcher: %v", err)
		case <-fire:
			_ = d.Refresh(ctx)
		}
	}
}
