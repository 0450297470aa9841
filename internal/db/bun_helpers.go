// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// rawQuerier is satisfied by both *bun.DB and bun.Tx.
type rawQuerier interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

// ExecRaw runs a statement with bun's '?' placeholders, which bun rewrites
// for the dialect.
func ExecRaw(ctx context.Context, q rawQuerier, query string, args ...any) (sql.Result, error) {
	return q.NewRaw(query, args...).Exec(ctx)
}

// QueryRawInto runs a query and scans the result into dest.
func QueryRawInto(ctx context.Context, q rawQuerier, dest any, query string, args ...any) error {
	return q.NewRaw(query, args...).Scan(ctx, dest)
}
