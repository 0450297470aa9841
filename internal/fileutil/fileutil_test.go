// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package fileutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomic_CreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "CLAUDE.md")

	if err := WriteFileAtomic(path, []byte("one")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("expected replaced content, got %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteFileAtomic_KeepsMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX modes only")
	}
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{}"), 0o640); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o640 {
		t.Fatalf("expected mode 0640, got %v", fi.Mode().Perm())
	}
}

func TestWriteNew_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmd.md")
	if err := WriteNew(path, []byte("a")); err != nil {
		t.Fatalf("first: %v", err)
	}
	err := WriteNew(path, []byte("b"))
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expected fs.ErrExist, got %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "a" {
		t.Fatalf("file was overwritten: %q", got)
	}
	if !Exists(path) {
		t.Fatalf("Exists should report true")
	}
	if Exists(filepath.Join(filepath.Dir(path), "missing")) {
		t.Fatalf("Exists should report false for missing file")
	}
}
