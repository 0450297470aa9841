// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package cron

import (
	"errors"
	"testing"

	"github.com/iclaudius/claudius/internal/i18n"
)

func TestValidateSchedule(t *testing.T) {
	valid := []string{
		"* * * * *",
		"*/5 * * * *",
		"0 9 * * 1-5",
		"0,30 8-18/2 1 jan-jun mon",
		"15 3 1 * sun",
		"0 0 * * 7",
		"@daily",
		"@REBOOT",
	}
	for _, s := range valid {
		if err := ValidateSchedule(s); err != nil {
			t.Errorf("ValidateSchedule(%q) = %v, want nil", s, err)
		}
	}

	invalid := []string{
		"",
		"* * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 8",
		"*/0 * * * *",
		"5-1 * * * *",
		"1,,2 * * * *",
		"@sometimes",
		"x * * * *",
		"+5 * * * *",
		"-0 * * * *",
		"*/+5 * * * *",
		"0 9 * * +1",
	}
	for _, s := range invalid {
		if err := ValidateSchedule(s); !errors.Is(err, ErrInvalidSchedule) {
			t.Errorf("ValidateSchedule(%q) = %v, want ErrInvalidSchedule", s, err)
		}
	}
}

func TestSplitSchedule_KeepsCommandSpacing(t *testing.T) {
	s, c, ok := splitSchedule("0  3 * * *   echo  a   b")
	if !ok {
		t.Fatalf("expected a job")
	}
	if s != "0 3 * * *" {
		t.Fatalf("schedule = %q", s)
	}
	if c != "echo  a   b" {
		t.Fatalf("command = %q", c)
	}

	s, c, ok = splitSchedule("@hourly\t/bin/true")
	if !ok || s != "@hourly" || c != "/bin/true" {
		t.Fatalf("macro split = %q %q %v", s, c, ok)
	}
	if _, _, ok := splitSchedule("0 3 * * *"); ok {
		t.Fatalf("schedule without command must not parse")
	}
}

func TestDescribe(t *testing.T) {
	i18n.Init("en")
	tests := []struct {
		in, want string
	}{
		{"* * * * *", "every minute"},
		{"*/15 * * * *", "every 15 minutes"},
		{"5 * * * *", "every hour at minute 5"},
		{"0 */2 * * *", "every 2 hours"},
		{"0 9 * * *", "every day at 09:00"},
		{"30 8 * * 1-5", "weekdays at 08:30"},
		{"0 18 * * 5", "every friday at 18:00"},
		{"0 6 1 * *", "monthly on day 1 at 06:00"},
		{"@daily", "every day at 00:00"},
		{"@reboot", "at system startup"},
		{"1 2 3 4 5", "1 2 3 4 5"},
	}
	for _, tt := range tests {
		if got := Describe(tt.in); got != tt.want {
			t.Errorf("Describe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
