// Channelpulse - Channel Traffic Analytics and Snapshot Comparison
// Copyright 2026 Channelpulse Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/channelpulse/channelpulse

package ingest

import (
	"reflect"
	"testing"
)

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "a,b,c",
			want: []string{"a", "b", "c"},
		},
		{
			name: "quoted field with embedded comma",
			line: `"Suggested videos, external",600,30.2`,
			want: []string{`"Suggested videos, external"`, "600", "30.2"},
		},
		{
			name: "doubled quote escape",
			line: `"He said ""hi""",1`,
			want: []string{`"He said ""hi"""`, "1"},
		},
		{
			name: "empty fields preserved",
			line: "a,,c,",
			want: []string{"a", "", "c", ""},
		},
		{
			name: "single field",
			line: "alone",
			want: []string{"alone"},
		},
		{
			name: "empty line yields one empty field",
			line: "",
			want: []string{""},
		},
		{
			name: "unterminated quote degrades to best effort",
			line: `"broken,field`,
			want: []string{`"broken,field`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeLine(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeLine(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestCleanField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`  padded  `, "padded"},
		{`"quoted"`, "quoted"},
		{`"embedded, comma"`, "embedded, comma"},
		{`"He said ""hi"""`, `He said "hi"`},
		{`""`, ""},
		{`"`, `"`},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := cleanField(tt.in); got != tt.want {
			t.Errorf("cleanField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitLines(t *testing.T) {
	lines := SplitLines([]byte("h1,h2\r\na,1\r\nb,2\r\n"))
	want := []string{"h1,h2", "a,1", "b,2"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("SplitLines CRLF = %#v, want %#v", lines, want)
	}

	lines = SplitLines([]byte("h1,h2\na,1\n\nb,2\n\n"))
	if len(lines) != 4 {
		t.Errorf("interior blank line should be kept, trailing dropped: %#v", lines)
	}

	if got := SplitLines([]byte("")); len(got) != 0 {
		t.Errorf("SplitLines(empty) = %#v, want empty", got)
	}
}

func TestFieldAt_ShortRow(t *testing.T) {
	fields := []string{"a", "b"}
	if got := fieldAt(fields, 5); got != "" {
		t.Errorf("fieldAt beyond row width = %q, want empty", got)
	}
	if got := fieldAt(fields, -1); got != "" {
		t.Errorf("fieldAt negative index = %q, want empty", got)
	}
	if got := fieldAt(fields, 1); got != "b" {
		t.Errorf("fieldAt(1) = %q, want b", got)
	}
}
