package receipt

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tier buckets an extraction confidence score for display.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// TierFor buckets a 0..1 confidence score.
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= 0.8:
		return TierHigh
	case confidence >= 0.5:
		return TierMedium
	default:
		return TierLow
	}
}

func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "High"
	case TierMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// Color returns the badge color class for the tier.
func (t Tier) Color() string {
	switch t {
	case TierHigh:
		return "success"
	case TierMedium:
		return "warning"
	default:
		return "danger"
	}
}

var frPrinter = message.NewPrinter(language.French)

// FormatCurrency renders an amount with two fraction digits, French-style
// grouping and the currency code as suffix (12,34 EUR). Values that do not
// coerce to a number render as "N/A".
func FormatCurrency(v any, currency string) string {
	f, ok := ToFloat(v)
	if !ok {
		return "N/A"
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return frPrinter.Sprintf("%.2f", f) + " " + currency
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// FormatDate renders a source date string as a localized date + time. An
// unparseable value is returned as-is rather than erased; empty renders "—".
func FormatDate(s string) string {
	if s == "" {
		return "—"
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006 15:04")
		}
	}
	return s
}
