// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"os/user"
	"strings"
	"time"

	"github.com/iclaudius/claudius/internal/analyzer"
	"github.com/iclaudius/claudius/internal/model"
	"github.com/uptrace/bun"
)

// ScanModel maps the scans table.
type ScanModel struct {
	bun.BaseModel `bun:"table:scans"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	ScannedAt     time.Time `bun:"scanned_at" json:"scanned_at"`
	Score         int       `bun:"score" json:"score"`
	Grade         string    `bun:"grade" json:"grade"`
	Coverage      int       `bun:"coverage" json:"coverage"`
	Instructions  int       `bun:"instructions" json:"instructions"`
	Commands      int       `bun:"commands" json:"commands"`
	Skills        int       `bun:"skills" json:"skills"`
	Agents        int       `bun:"agents" json:"agents"`
	Plugins       int       `bun:"plugins" json:"plugins"`
	MCPServers    int       `bun:"mcp_servers" json:"mcp_servers"`
	CronJobs      int       `bun:"cron_jobs" json:"cron_jobs"`
	Conflicts     int       `bun:"conflicts" json:"conflicts"`
	Issues        int       `bun:"issues" json:"issues"`
	DurationMS    int64     `bun:"duration_ms" json:"duration_ms"`
}

// AuditLogModel maps the audit_log table.
type AuditLogModel struct {
	bun.BaseModel `bun:"table:audit_log"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Timestamp     time.Time `bun:"timestamp" json:"timestamp"`
	Username      string    `bun:"username" json:"username"`
	Action        string    `bun:"action" json:"action"`
	Details       string    `bun:"details" json:"details"`
}

// TrendPoint is one scan with its score change against the scan before.
type TrendPoint struct {
	ScannedAt time.Time `json:"scanned_at"`
	Score     int       `json:"score"`
	Delta     int       `json:"delta"`
}

// NewScanRecord summarises a scan and its analysis.
func NewScanRecord(snap *model.Snapshot, report *analyzer.Report) ScanModel {
	rec := ScanModel{
		ScannedAt:  snap.ScannedAt,
		DurationMS: snap.Duration.Milliseconds(),
	}
	if report != nil {
		rec.Score = report.Safety.Score
		rec.Grade = report.Safety.Grade
		rec.Coverage = report.Coverage.Percent
		rec.Instructions = report.Summary.Instructions
		rec.Commands = report.Summary.Commands
		rec.Skills = report.Summary.Skills
		rec.Agents = report.Summary.Agents
		rec.Plugins = report.Summary.Plugins
		rec.MCPServers = report.Summary.MCPServers
		rec.CronJobs = report.Summary.CronJobs
		rec.Conflicts = len(report.Conflicts)
		rec.Issues = report.Summary.Issues
	}
	return rec
}

// RecordScan stores one scan summary. A zero ScannedAt is set from the
// store's clock.
func (s *Store) RecordScan(ctx context.Context, rec ScanModel) (ScanModel, error) {
	rec.ID = 0
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = s.clock.Now()
	}
	rec.ScannedAt = rec.ScannedAt.UTC()
	if _, err := s.bun.NewInsert().Model(&rec).Exec(ctx); err != nil {
		return rec, MapDBError(err)
	}
	dbLogf("db: recorded scan score=%d grade=%s", rec.Score, rec.Grade)
	return rec, nil
}

// RecentScans returns up to n scans, newest first. n <= 0 returns all.
func (s *Store) RecentScans(ctx context.Context, n int) ([]ScanModel, error) {
	var out []ScanModel
	q := s.bun.NewSelect().Model(&out).OrderExpr("scanned_at DESC").OrderExpr("id DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// Trend returns the last n scores, oldest first, each with the change
// against the previous point.
func (s *Store) Trend(ctx context.Context, n int) ([]TrendPoint, error) {
	scans, err := s.RecentScans(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, 0, len(scans))
	for i := len(scans) - 1; i >= 0; i-- {
		p := TrendPoint{ScannedAt: scans[i].ScannedAt, Score: scans[i].Score}
		if len(out) > 0 {
			p.Delta = p.Score - out[len(out)-1].Score
		}
		out = append(out, p)
	}
	return out, nil
}

// LogAction records an audit trail event for the current OS user.
func (s *Store) LogAction(ctx context.Context, action, details string) error {
	entry := AuditLogModel{
		Timestamp: s.clock.Now().UTC(),
		Username:  currentUser(),
		Action:    action,
		Details:   details,
	}
	_, err := s.bun.NewInsert().Model(&entry).Exec(ctx)
	return MapDBError(err)
}

// AuditEntries returns up to n audit entries, newest first. n <= 0 returns
// all.
func (s *Store) AuditEntries(ctx context.Context, n int) ([]AuditLogModel, error) {
	var out []AuditLogModel
	q := s.bun.NewSelect().Model(&out).OrderExpr("timestamp DESC").OrderExpr("id DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes scans older than before and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := ExecRaw(ctx, s.bun, "DELETE FROM scans WHERE scanned_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountScans returns the number of stored scans.
func (s *Store) CountScans(ctx context.Context) (int, error) {
	var n int
	err := QueryRawInto(ctx, s.bun, &n, "SELECT COUNT(*) FROM scans")
	return n, err
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	// DOMAIN\user on Windows
	if parts := strings.Split(u.Username, `\`); len(parts) > 1 {
		return parts[1]
	}
	return u.Username
}
