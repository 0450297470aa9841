// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/iclaudius/claudius/internal/changelog"
	"github.com/iclaudius/claudius/internal/cron"
	"github.com/iclaudius/claudius/internal/editor"
	"github.com/iclaudius/claudius/internal/i18n"
	"github.com/iclaudius/claudius/internal/logging"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/spf13/cobra"
)

// cronCmd is the root command for scheduled job operations. Jobs are
// addressed by their line index as printed by `cron list`.
func newCronCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "List and edit scheduled jobs in the user's crontab",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := a.crontab.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, i18n.T("list.empty"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", "#", i18n.T("col.enabled"), i18n.T("col.schedule"), i18n.T("col.when"), i18n.T("col.command"))
			for _, j := range jobs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", j.Index, yesNo(j.Enabled), j.Schedule, cron.Describe(j.Schedule), j.Command)
			}
			return w.Flush()
		},
	}

	var comment string
	add := &cobra.Command{
		Use:   "add <schedule> <command>",
		Short: "Add a scheduled job",
		Example: `  claudius cron add "0 9 * * 1-5" 'claude -p "/standup"'
  claudius cron add @daily /usr/local/bin/backup.sh --comment "nightly backup"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.crontab.Add(cmd.Context(), args[0], args[1], comment)
			return a.reportWrite(cmd, "cron-add", args[1], msg, err)
		},
	}
	add.Flags().StringVarP(&comment, "comment", "c", "", "Comment written above the job")

	update := &cobra.Command{
		Use:   "update <index> <schedule> <command>",
		Short: "Replace the schedule and command of a job",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			msg, err := a.crontab.Update(cmd.Context(), idx, args[1], args[2])
			return a.reportWrite(cmd, "cron-update", args[2], msg, err)
		},
	}

	remove := &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a job and its comment",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			msg, err := a.crontab.Remove(cmd.Context(), idx)
			return a.reportWrite(cmd, "cron-remove", args[0], msg, err)
		},
	}

	toggle := func(use, short string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <index>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				idx, err := parseIndex(args[0])
				if err != nil {
					return err
				}
				msg, err := a.crontab.SetEnabled(cmd.Context(), idx, enabled)
				return a.reportWrite(cmd, "cron-"+use, args[0], msg, err)
			},
		}
	}

	cmd.AddCommand(list, add, update, remove,
		toggle("enable", "Uncomment a disabled job", true),
		toggle("disable", "Comment a job out", false),
	)
	return cmd
}

func parseIndex(s string) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%s", i18n.T("cli.invalid_index", s))
	}
	return idx, nil
}

// reportWrite prints the message of a successful crontab write and records
// it in the history database. Failures are returned unchanged.
func (a *app) reportWrite(cmd *cobra.Command, action, target, msg string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	store, herr := a.history()
	if herr != nil {
		logging.Warnf("%v", herr)
	}
	if store != nil {
		if lerr := store.LogAction(cmd.Context(), action, target); lerr != nil {
			logging.Warnf("history: %v", lerr)
		}
	}
	return nil
}

// newNewCmd creates commands, skills and agents.
func newNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a command, skill or agent",
	}

	for _, kind := range []model.CommandKind{model.KindCommand, model.KindSkill, model.KindAgent} {
		var description, body, project string
		var tools []string
		sub := &cobra.Command{
			Use:   string(kind) + " <name>",
			Short: "Create a new " + string(kind),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.attachHistory()
				target := editor.UserTarget
				if project != "" {
					target = editor.ProjectTarget(project)
				}
				ctx := cmd.Context()
				var (
					path string
					err  error
				)
				switch kind {
				case model.KindSkill:
					path, err = a.editor.CreateSkill(ctx, target, args[0], description, body)
				case model.KindAgent:
					path, err = a.editor.CreateAgent(ctx, target, args[0], description, tools, body)
				default:
					path, err = a.editor.CreateCommand(ctx, target, args[0], description, body)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("editor.created_"+string(kind), path))
				return nil
			},
		}
		sub.Flags().StringVarP(&description, "description", "d", "", "Short description shown in listings")
		sub.Flags().StringVarP(&body, "body", "b", "", "Body of the file")
		sub.Flags().StringVarP(&project, "project", "p", "", "Create the file in this project instead of the user config")
		if kind == model.KindAgent {
			sub.Flags().StringSliceVarP(&tools, "tools", "t", nil, "Tools the agent may use")
		}
		cmd.AddCommand(sub)
	}
	return cmd
}

// newChangelogCmd lists and appends autonomous change log entries.
func newChangelogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changelog",
		Short: "Show or append to the autonomous change log",
	}

	var limit int
	var actor, action string
	list := &cobra.Command{
		Use:   "list",
		Short: "List change log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.changes.Load()
			if err != nil {
				return err
			}
			entries = changelog.Recent(changelog.Filter(entries, actor, action), limit)
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, i18n.T("dashboard.no_changes"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", i18n.T("col.time"), i18n.T("col.actor"), i18n.T("col.action"), i18n.T("col.target"), i18n.T("col.summary"))
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Actor, e.Action, e.Target, e.Summary)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries (0 for all)")
	list.Flags().StringVar(&actor, "actor", "", "Only entries by this actor")
	list.Flags().StringVar(&action, "action", "", "Only entries with this action")

	var target, details string
	add := &cobra.Command{
		Use:   "add <action> <summary...>",
		Short: "Append an entry",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.changes.Append(model.ChangeEntry{
				Action:  args[0],
				Target:  target,
				Summary: strings.Join(args[1:], " "),
				Details: details,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.changelog_added", e.ID))
			return nil
		},
	}
	add.Flags().StringVar(&target, "target", "", "Path or name the change applies to")
	add.Flags().StringVar(&details, "details", "", "Longer description")

	cmd.AddCommand(list, add)
	return cmd
}
