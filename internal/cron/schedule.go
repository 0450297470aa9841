// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package cron

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iclaudius/claudius/internal/i18n"
)

// ErrInvalidSchedule is returned for schedules crontab would reject.
var ErrInvalidSchedule = errors.New("invalid cron schedule")

var macros = map[string]bool{
	"@reboot":   true,
	"@yearly":   true,
	"@annually": true,
	"@monthly":  true,
	"@weekly":   true,
	"@daily":    true,
	"@midnight": true,
	"@hourly":   true,
}

type field struct {
	name     string
	min, max int
	names    map[string]int
}

var fields = []field{
	{name: "minute", min: 0, max: 59},
	{name: "hour", min: 0, max: 23},
	{name: "day of month", min: 1, max: 31},
	{name: "month", min: 1, max: 12, names: map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}},
	{name: "day of week", min: 0, max: 7, names: map[string]int{
		"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
	}},
}

// ValidateSchedule checks a five-field schedule or an @macro.
func ValidateSchedule(schedule string) error {
	s := strings.TrimSpace(schedule)
	if strings.HasPrefix(s, "@") {
		if macros[strings.ToLower(s)] {
			return nil
		}
		return fmt.Errorf("%w: unknown macro %q", ErrInvalidSchedule, s)
	}
	parts := strings.Fields(s)
	if len(parts) != len(fields) {
		return fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidSchedule, len(parts))
	}
	for i, p := range parts {
		if err := fields[i].validate(p); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, fields[i].name, err)
		}
	}
	return nil
}

func (f field) validate(expr string) error {
	for _, item := range strings.Split(expr, ",") {
		if item == "" {
			return errors.New("empty list item")
		}
		rng, step, hasStep := strings.Cut(item, "/")
		if hasStep {
			n, err := strconv.Atoi(step)
			if !isNumber(step) || err != nil || n <= 0 {
				return fmt.Errorf("bad step %q", step)
			}
		}
		if rng == "*" {
			continue
		}
		lo, hi, isRange := strings.Cut(rng, "-")
		a, err := f.value(lo)
		if err != nil {
			return err
		}
		if !isRange {
			continue
		}
		b, err := f.value(hi)
		if err != nil {
			return err
		}
		if b < a {
			return fmt.Errorf("range %q is reversed", rng)
		}
	}
	return nil
}

func (f field) value(s string) (int, error) {
	if v, ok := f.names[strings.ToLower(s)]; ok {
		return v, nil
	}
	// Atoi also takes a sign, crontab does not.
	if !isNumber(s) {
		return 0, fmt.Errorf("bad value %q", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	if n < f.min || n > f.max {
		return 0, fmt.Errorf("%d out of range %d-%d", n, f.min, f.max)
	}
	return n, nil
}

// splitSchedule separates the schedule from the command of a job line. ok is
// false when the line does not start with a valid schedule.
func splitSchedule(line string) (schedule, command string, ok bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "@") {
		idx := strings.IndexAny(line, " \t")
		if idx < 0 {
			return "", "", false
		}
		macro, rest := line[:idx], strings.TrimSpace(line[idx:])
		if ValidateSchedule(macro) != nil || rest == "" {
			return "", "", false
		}
		return macro, rest, true
	}
	parts := strings.Fields(line)
	if len(parts) <= len(fields) {
		return "", "", false
	}
	schedule = strings.Join(parts[:len(fields)], " ")
	if ValidateSchedule(schedule) != nil {
		return "", "", false
	}
	// Keep the command's original spacing.
	rest := line
	for i := 0; i < len(fields); i++ {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		rest = rest[idx:]
	}
	return schedule, strings.TrimSpace(rest), true
}

var weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// Describe returns a short human description of a schedule. Unknown shapes
// fall back to the raw expression.
func Describe(schedule string) string {
	s := strings.TrimSpace(schedule)
	if strings.HasPrefix(s, "@") {
		switch strings.ToLower(s) {
		case "@reboot":
			return i18n.T("cron.describe.reboot")
		case "@yearly", "@annually":
			return i18n.T("cron.describe.yearly")
		case "@monthly":
			return i18n.T("cron.describe.monthly")
		case "@weekly":
			return i18n.T("cron.describe.weekly")
		case "@daily", "@midnight":
			return i18n.T("cron.describe.daily_at", "00:00")
		case "@hourly":
			return i18n.T("cron.describe.hourly")
		}
		return s
	}

	p := strings.Fields(s)
	if len(p) != 5 {
		return s
	}
	min, hour, dom, mon, dow := p[0], p[1], p[2], p[3], p[4]
	allDays := dom == "*" && mon == "*"

	switch {
	case min == "*" && hour == "*" && allDays && dow == "*":
		return i18n.T("cron.describe.every_minute")
	case strings.HasPrefix(min, "*/") && hour == "*" && allDays && dow == "*":
		return i18n.T("cron.describe.every_n_minutes", strings.TrimPrefix(min, "*/"))
	case isNumber(min) && hour == "*" && allDays && dow == "*":
		return i18n.T("cron.describe.hourly_at", atoi(min))
	case isNumber(min) && strings.HasPrefix(hour, "*/") && allDays && dow == "*":
		return i18n.T("cron.describe.every_n_hours", strings.TrimPrefix(hour, "*/"))
	}

	if !isNumber(min) || !isNumber(hour) {
		return s
	}
	at := fmt.Sprintf("%02d:%02d", atoi(hour), atoi(min))
	switch {
	case allDays && dow == "*":
		return i18n.T("cron.describe.daily_at", at)
	case allDays && (dow == "1-5" || strings.EqualFold(dow, "mon-fri")):
		return i18n.T("cron.describe.weekdays_at", at)
	case allDays && isNumber(dow) && atoi(dow) >= 0 && atoi(dow) <= 7:
		return i18n.T("cron.describe.weekly_at", i18n.T("cron.weekday."+weekdays[atoi(dow)]), at)
	case isNumber(dom) && mon == "*" && dow == "*":
		return i18n.T("cron.describe.monthly_at", atoi(dom), at)
	}
	return s
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
