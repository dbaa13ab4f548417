package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeUTF8(t *testing.T) {
	if got := sanitizeUTF8("déjeuner"); got != "déjeuner" {
		t.Errorf("sanitizeUTF8 changed valid input: %q", got)
	}
	if got := sanitizeUTF8("caf\xffé"); got != "café" {
		t.Errorf("sanitizeUTF8(invalid) = %q", got)
	}
}

func TestTruncateBytes(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"ascii cut", "hello", 3, "hel"},
		{"euro sign not split", "ab€cd", 4, "ab"},
		{"accent not split", "café", 4, "caf"},
		{"cut on boundary", "ab€cd", 5, "ab€"},
		{"zero limit", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateBytes(tt.s, tt.n)
			if got != tt.want {
				t.Errorf("truncateBytes(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncateBytes(%q, %d) produced invalid UTF-8", tt.s, tt.n)
			}
		})
	}

	long := strings.Repeat("é", 3000)
	got := truncateBytes(long, 4000)
	if !utf8.ValidString(got) {
		t.Error("truncated policy-sized text is not valid UTF-8")
	}
	if len(got) > 4000 {
		t.Errorf("len = %d, want <= 4000", len(got))
	}
}
