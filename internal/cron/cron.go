// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// package cron reads and rewrites the user's crontab through the crontab
// binary. Every change rewrites the whole table: the current table is read,
// the targeted line is changed and the result is installed from a temp file
// with `crontab <file>`.
package cron

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
)

var (
	// ErrNoCrontab means the user has no crontab installed yet.
	ErrNoCrontab = errors.New("no crontab for user")
	// ErrNotFound means the requested index is not a job line.
	ErrNotFound = errors.New("cron job not found")
	// ErrInvalidCommand is returned for empty or multi-line commands.
	ErrInvalidCommand = errors.New("invalid cron command")
)

// Runner executes an external program. It is the seam tests replace.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Crontab manages one user's crontab.
type Crontab struct {
	Binary    string
	Assistant string
	Runner    Runner
	// TempDir holds the file handed to crontab. Empty means os.TempDir.
	TempDir string
}

// New returns a Crontab using the exec runner. assistant is the binary name
// used to flag jobs that run the assistant.
func New(binary, assistant string) *Crontab {
	if binary == "" {
		binary = "crontab"
	}
	return &Crontab{Binary: binary, Assistant: assistant, Runner: ExecRunner{}}
}

// Read returns the raw crontab text. A missing crontab yields ErrNoCrontab.
func (c *Crontab) Read(ctx context.Context) (string, error) {
	stdout, stderr, err := c.Runner.Run(ctx, c.Binary, "-l")
	if err != nil {
		if strings.Contains(strings.ToLower(string(stderr)), "no crontab") {
			return "", ErrNoCrontab
		}
		return "", fmt.Errorf("%s -l: %w: %s", c.Binary, err, strings.TrimSpace(string(stderr)))
	}
	return string(stdout), nil
}

// List returns the parsed jobs. No crontab is an empty list, not an error.
func (c *Crontab) List(ctx context.Context) ([]model.CronJob, error) {
	text, err := c.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCrontab) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(text, c.Assistant), nil
}

// Add appends a job with an optional comment line above it.
func (c *Crontab) Add(ctx context.Context, schedule, command, comment string) (string, error) {
	if err := checkJob(schedule, command); err != nil {
		return "", err
	}
	lines, err := c.lines(ctx)
	if err != nil {
		return "", err
	}
	if comment = strings.TrimSpace(comment); comment != "" {
		lines = append(lines, "# "+singleLine(comment))
	}
	lines = append(lines, strings.TrimSpace(schedule)+" "+strings.TrimSpace(command))
	if err := c.install(ctx, lines); err != nil {
		return "", err
	}
	return i18n.T("cron.added", Describe(schedule)), nil
}

// Update replaces the schedule and command of the job at index. A disabled
// job stays disabled.
func (c *Crontab) Update(ctx context.Context, index int, schedule, command string) (string, error) {
	if err := checkJob(schedule, command); err != nil {
		return "", err
	}
	lines, job, err := c.job(ctx, index)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(schedule) + " " + strings.TrimSpace(command)
	if !job.Enabled {
		line = "# " + line
	}
	lines[index] = line
	if err := c.install(ctx, lines); err != nil {
		return "", err
	}
	return i18n.T("cron.updated", Describe(schedule)), nil
}

// Remove deletes the job at index together with its comment line.
func (c *Crontab) Remove(ctx context.Context, index int) (string, error) {
	lines, job, err := c.job(ctx, index)
	if err != nil {
		return "", err
	}
	start := index
	if job.Comment != "" && index > 0 && isComment(lines[index-1]) {
		start = index - 1
	}
	lines = append(lines[:start], lines[index+1:]...)
	if err := c.install(ctx, lines); err != nil {
		return "", err
	}
	return i18n.T("cron.removed", job.Command), nil
}

// SetEnabled comments a job out or back in.
func (c *Crontab) SetEnabled(ctx context.Context, index int, enabled bool) (string, error) {
	lines, job, err := c.job(ctx, index)
	if err != nil {
		return "", err
	}
	if job.Enabled == enabled {
		return i18n.T("cron.unchanged"), nil
	}
	if enabled {
		lines[index] = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(lines[index]), "#"))
		if err := c.install(ctx, lines); err != nil {
			return "", err
		}
		return i18n.T("cron.enabled", job.Command), nil
	}
	lines[index] = "# " + strings.TrimSpace(lines[index])
	if err := c.install(ctx, lines); err != nil {
		return "", err
	}
	return i18n.T("cron.disabled", job.Command), nil
}

func (c *Crontab) lines(ctx context.Context) ([]string, error) {
	text, err := c.Read(ctx)
	if err != nil && !errors.Is(err, ErrNoCrontab) {
		return nil, err
	}
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (c *Crontab) job(ctx context.Context, index int) ([]string, model.CronJob, error) {
	lines, err := c.lines(ctx)
	if err != nil {
		return nil, model.CronJob{}, err
	}
	for _, j := range parseLines(lines, c.Assistant) {
		if j.Index == index {
			return lines, j, nil
		}
	}
	return nil, model.CronJob{}, fmt.Errorf("%w: line %d", ErrNotFound, index)
}

// install writes lines to a temp file and hands it to crontab.
func (c *Crontab) install(ctx context.Context, lines []string) error {
	text := strings.Join(lines, "\n") + "\n"

	f, err := os.CreateTemp(c.TempDir, "claudius-crontab-*")
	if err != nil {
		return fmt.Errorf("create temp crontab: %w", err)
	}
	name := f.Name()
	defer func() { _ = os.Remove(name) }()

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp crontab: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	_, stderr, err := c.Runner.Run(ctx, c.Binary, name)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", c.Binary, filepath.Base(name), err, strings.TrimSpace(string(stderr)))
	}
	logging.Debugf("installed crontab with %d lines", len(lines))
	return nil
}

func checkJob(schedule, command string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}
	command = strings.TrimSpace(command)
	if command == "" || strings.ContainsAny(command, "\r\n") {
		return ErrInvalidCommand
	}
	return nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var envAssignment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*=`)

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// Parse extracts jobs from crontab text. Line indexes are zero-based.
func Parse(text, assistant string) []model.CronJob {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return parseLines(strings.Split(text, "\n"), assistant)
}

func parseLines(lines []string, assistant string) []model.CronJob {
	var jobs []model.CronJob
	comment := ""
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			comment = ""
		case envAssignment.MatchString(line):
			comment = ""
		case strings.HasPrefix(line, "#"):
			body := strings.TrimSpace(strings.TrimLeft(line, "#"))
			if schedule, command, ok := splitSchedule(body); ok {
				jobs = append(jobs, newJob(i, raw, schedule, command, comment, false, assistant))
				comment = ""
				continue
			}
			comment = body
		default:
			schedule, command, ok := splitSchedule(line)
			if ok {
				jobs = append(jobs, newJob(i, raw, schedule, command, comment, true, assistant))
			}
			comment = ""
		}
	}
	return jobs
}

func newJob(index int, line, schedule, command, comment string, enabled bool, assistant string) model.CronJob {
	return model.CronJob{
		Index:     index,
		Line:      line,
		Schedule:  schedule,
		Command:   command,
		Comment:   comment,
		Enabled:   enabled,
		Assistant: InvokesAssistant(command, assistant),
	}
}

// InvokesAssistant reports whether command runs the assistant binary,
// directly or through a path.
func InvokesAssistant(command, assistant string) bool {
	if assistant == "" {
		return false
	}
	name := filepath.Base(assistant)
	tokens := strings.FieldsFunc(command, func(r rune) bool {
		switch r {
		case ' ', '\t', ';', '&', '|', '(', ')', '`', '"', '\'':
			return true
		}
		return false
	})
	for _, tok := range tokens {
		if filepath.Base(tok) == name {
			return true
		}
	}
	return false
}
