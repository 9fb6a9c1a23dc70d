// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exactly max", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"tiny max no ellipsis", "hello", 2, "he"},
		{"multibyte preserved", "héllo wörld", 8, "héllo..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateRunes(tc.in, tc.max); got != tc.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
			}
		})
	}
}

func TestTruncateWidth_CJK(t *testing.T) {
	// Each CJK character is two columns wide.
	got := TruncateWidth("日本語のテスト", 8)

	if StringWidth(got) > 8 {
		t.Errorf("TruncateWidth result %q is %d columns, want <= 8", got, StringWidth(got))
	}

	if !strings.HasSuffix(got, "...") {
		t.Errorf("TruncateWidth result %q should carry an ellipsis", got)
	}
}

func TestPreview(t *testing.T) {
	got := Preview("line one\nline two\r\nline three", 80)

	if strings.ContainsAny(got, "\n\r") {
		t.Errorf("Preview(%q) still contains newlines", got)
	}
}
