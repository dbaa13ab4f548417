package receipt

import (
	"strings"
	"testing"
)

func TestFormatCurrency(t *testing.T) {
	if got := FormatCurrency(nil, "USD"); got != "N/A" {
		t.Errorf("FormatCurrency(nil) = %q, want N/A", got)
	}

	got := FormatCurrency(12, "USD")
	if !strings.HasSuffix(got, " USD") {
		t.Errorf("FormatCurrency(12, USD) = %q, want USD suffix", got)
	}
	if !strings.Contains(got, "12,00") {
		t.Errorf("FormatCurrency(12, USD) = %q, want two fraction digits", got)
	}

	if got := FormatCurrency("abc", "EUR"); got != "N/A" {
		t.Errorf("FormatCurrency(abc) = %q, want N/A", got)
	}

	// Empty currency falls back to EUR
	if got := FormatCurrency(5.5, ""); !strings.HasSuffix(got, " EUR") {
		t.Errorf("FormatCurrency(5.5, \"\") = %q, want EUR suffix", got)
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "—"},
		{"2024-03-15T12:30:00Z", "15/03/2024 12:30"},
		{"2024-03-15", "15/03/2024 00:00"},
		{"not a date", "not a date"},
	}

	for _, tt := range tests {
		if got := FormatDate(tt.input); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
