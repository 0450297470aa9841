// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"strings"

	"github.com/iclaudius/claudius/internal/i18n"
)

// getFilterStatusLine generates the standard filter status string for footers.
func getFilterStatusLine(isFiltering bool, filterText, column string) string {
	if isFiltering {
		return i18n.T("list.filtering", column, filterText)
	}
	if filterText != "" {
		return i18n.T("list.filter_active", column, filterText)
	}
	return i18n.T("list.filter_hint")
}

// formatLabelPadding pads label to labelWidth cells and appends value.
func formatLabelPadding(label, value string, labelWidth int) string {
	if labelWidth <= 0 || len(label) >= labelWidth {
		return label + " " + value
	}
	return label + strings.Repeat(" ", labelWidth-len(label)) + " " + value
}
