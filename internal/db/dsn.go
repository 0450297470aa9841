// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const redacted = "xxxxx"

var pgKeywordPassword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// RedactDSN hides the password of a connection string so it can be shown
// in debug output. SQLite paths are returned unchanged.
func RedactDSN(dbType, dsn string) string {
	switch dbType {
	case TypeMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return redacted
		}
		if cfg.Passwd != "" {
			cfg.Passwd = redacted
		}
		return cfg.FormatDSN()
	case TypePostgres:
		if strings.Contains(dsn, "://") {
			u, err := url.Parse(dsn)
			if err != nil {
				return redacted
			}
			if q := u.Query(); q.Has("password") {
				q.Set("password", redacted)
				u.RawQuery = q.Encode()
			}
			return u.Redacted()
		}
		return pgKeywordPassword.ReplaceAllString(dsn, "${1}"+redacted)
	}
	return dsn
}
