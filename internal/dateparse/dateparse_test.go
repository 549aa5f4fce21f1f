package dateparse

import (
	"testing"
	"time"
)

func TestParseFrom(t *testing.T) {
	// Wednesday
	now := time.Date(2025, 1, 29, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"2024-09-17", "2024-09-17"},
		{"today", "2025-01-29"},
		{"Tomorrow", "2025-01-30"},
		{"yesterday", "2025-01-28"},
		{"+3d", "2025-02-01"},
		{"-1d", "2025-01-28"},
		{"+2w", "2025-02-12"},
		{"+1m", "2025-03-01"}, // Feb 29 normalizes
		{"-12m", "2024-01-29"},
		{"fri", "2025-01-31"},
		{"wednesday", "2025-02-05"},
		{"Mon", "2025-02-03"},
	}
	for _, tc := range tests {
		got, err := ParseFrom(tc.in, now)
		if err != nil {
			t.Errorf("ParseFrom(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFrom(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFromInvalid(t *testing.T) {
	now := time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-02-30", "31/01/2025", "+3y", "+d", "next tuesday", "March"} {
		if got, err := ParseFrom(in, now); err == nil {
			t.Errorf("ParseFrom(%q) = %q, want error", in, got)
		}
	}
}
