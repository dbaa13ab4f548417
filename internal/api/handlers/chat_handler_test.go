package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{"short string untouched", "bonjour", 200, "bonjour"},
		{"ascii cut", "bonjour", 3, "bon"},
		{"accent not split", "déj", 2, "d"},
		{"euro sign not split", "12€", 4, "12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.s, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
			}
		})
	}

	// A long message full of accented text must still log as valid UTF-8.
	msg := strings.Repeat("déjeuner à 12€ ", 40)
	got := truncate(msg, 200)
	if len(got) > 200 {
		t.Errorf("len = %d, want <= 200", len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncated message is not valid UTF-8")
	}
}
