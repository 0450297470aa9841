// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package scanner

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// SplitFrontmatter separates a `---` fenced YAML header from the body. A
// document without a header returns a nil map and the full content.
func SplitFrontmatter(content string) (map[string]any, string, error) {
	text := strings.TrimPrefix(content, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return nil, content, nil
	}
	rest := text[len("---\n"):]

	var header, body string
	switch {
	case strings.HasPrefix(rest, "---\n"):
		body = rest[len("---\n"):]
	case strings.HasPrefix(rest, "---") && len(rest) == 3:
	default:
		end := strings.Index(rest, "\n---\n")
		if end < 0 {
			if strings.HasSuffix(rest, "\n---") {
				end = len(rest) - len("\n---")
				header = rest[:end]
				break
			}
			return nil, content, fmt.Errorf("unterminated frontmatter")
		}
		header = rest[:end]
		body = rest[end+len("\n---\n"):]
	}

	fm := map[string]any{}
	if strings.TrimSpace(header) != "" {
		if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
			return nil, body, fmt.Errorf("frontmatter: %w", err)
		}
	}
	return fm, body, nil
}

// fmString returns a scalar frontmatter value as a string.
func fmString(fm map[string]any, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// fmList accepts a YAML list or a comma separated string.
func fmList(fm map[string]any, key string) []string {
	v, ok := fm[key]
	if !ok || v == nil {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		out = splitToolList(t)
	}
	return out
}

// splitToolList splits "Bash(git add:*), Read" on commas outside parentheses.
func splitToolList(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if item := strings.TrimSpace(s[start:i]); item != "" {
					out = append(out, item)
				}
				start = i + 1
			}
		}
	}
	if item := strings.TrimSpace(s[start:]); item != "" {
		out = append(out, item)
	}
	return out
}

// firstProseLine returns the first non-empty line that is not a heading.
func firstProseLine(body string) string {
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "```") {
			inFence = !inFence
			continue
		}
		if inFence || l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		if r := []rune(l); len(r) > 120 {
			l = string(r[:117]) + "..."
		}
		return l
	}
	return ""
}
