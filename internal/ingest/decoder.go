// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package ingest

import "strings"

// DecodeLine splits one raw CSV line into fields, honoring double-quote
// enclosed fields that may contain the delimiter or embedded quotes (escaped
// as doubled quotes).
//
// Fields are returned verbatim: surrounding quotes and whitespace are left in
// place for the caller to strip (see cleanField). DecodeLine never fails;
// malformed quoting (an unterminated quote at end of line) degrades to
// best-effort splitting with the remainder of the line as the final field.
func DecodeLine(line string) []string {
	fields := make([]string, 0, 8)
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			b.WriteByte(c)
		case c == ',' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	fields = append(fields, b.String())

	return fields
}

// SplitLines splits raw export text into lines, tolerating both LF and CRLF
// endings. Trailing empty lines are dropped; interior blank lines are kept
// so row indices stay stable (Parse skips them).
func SplitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// cleanField strips surrounding whitespace and one layer of enclosing quotes
// from a decoded field, collapsing doubled quotes back to single ones.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		s = strings.ReplaceAll(s, `""`, `"`)
	}
	return strings.TrimSpace(s)
}

// fieldAt returns the cleaned field at idx, or "" when the row is too short.
// Short rows are common in hand-edited exports; a missing cell reads as
// empty rather than failing the row.
func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return cleanField(fields[idx])
}
