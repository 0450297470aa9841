// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Prober asks the host about the assistant binary.
type Prober interface {
	Version(ctx context.Context) (string, error)
	Sessions(ctx context.Context) (int, error)
}

// SystemProber runs `<binary> --version` and counts matching processes.
type SystemProber struct {
	Binary  string
	Timeout time.Duration
}

// NewSystemProber returns a prober with a five second version timeout.
func NewSystemProber(binary string) *SystemProber {
	return &SystemProber{Binary: binary, Timeout: 5 * time.Second}
}

// Version returns the first line of the version output.
func (p *SystemProber) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.Binary, "--version").Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// Sessions counts running processes named after the binary. Processes that
// vanish while being inspected are ignored.
func (p *SystemProber) Sessions(ctx context.Context) (int, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, err
	}
	want := filepath.Base(p.Binary)
	n := 0
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if name == want || strings.TrimSuffix(name, ".exe") == want {
			n++
		}
	}
	return n, nil
}
