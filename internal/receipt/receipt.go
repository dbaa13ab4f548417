package receipt

import (
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// TicketInfo is the loosely structured payload produced by ticket extraction.
// Every field is optional; numeric-ish fields are declared as any because the
// extractor may hand back numbers or strings with currency symbols and comma
// decimal separators.
type TicketInfo struct {
	Vendor        string       `json:"vendor,omitempty"`
	Location      string       `json:"location,omitempty"`
	City          string       `json:"city,omitempty"`
	Filename      string       `json:"filename,omitempty"`
	Currency      string       `json:"currency,omitempty"`
	VATRate       any          `json:"vat_rate,omitempty"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	Category      string       `json:"category,omitempty"`
	Date          string       `json:"date,omitempty"`
	Amount        any          `json:"amount,omitempty"`
	TotalAmount   any          `json:"total_amount,omitempty"`
	TransactionID string       `json:"transaction_id,omitempty"`
	TicketNumber  string       `json:"ticket_number,omitempty"`
	MerchantID    string       `json:"merchant_id,omitempty"`
	Items         []TicketItem `json:"items,omitempty"`
	Description   string       `json:"description,omitempty"`
	RawText       string       `json:"raw_text,omitempty"`
	FileType      string       `json:"file_type,omitempty"`
}

type TicketItem struct {
	Label     string `json:"label,omitempty"`
	Qty       any    `json:"qty,omitempty"`
	UnitPrice any    `json:"unit_price,omitempty"`
}

// Item is a fully resolved receipt line.
type Item struct {
	Label     string  `json:"label"`
	Qty       float64 `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}

// NormalizedReceipt is the display-ready receipt model. It is derived, never
// persisted, and recomputed for each preview.
type NormalizedReceipt struct {
	Vendor         string  `json:"vendor"`
	Location       string  `json:"location"`
	Filename       string  `json:"filename"`
	Currency       string  `json:"currency"`
	VATRatePercent float64 `json:"vat_rate_percent"`
	PaymentMethod  string  `json:"payment_method"`
	Category       string  `json:"category"`
	Date           string  `json:"date"`
	Items          []Item  `json:"items"`
	Subtotal       float64 `json:"subtotal"`
	VAT            float64 `json:"vat"`
	TotalTTC       float64 `json:"total_ttc"`
	Confidence     float64 `json:"confidence"`
	TransactionID  string  `json:"transaction_id"`
	TicketNumber   string  `json:"ticket_number"`
	MerchantID     string  `json:"merchant_id"`
}

// Defaults applied when the source omits a field.
const (
	DefaultVendor        = "MERCHANT / COMMERÇANT"
	DefaultLocation      = "—"
	DefaultCurrency      = "EUR"
	DefaultVATRate       = 20.0
	DefaultPaymentMethod = "CB / CREDIT CARD"
	DefaultCategory      = "GENERAL"
	DefaultMerchantID    = "SIRET/TVA: —"
	DefaultItemLabel     = "Article"
)

// ToFloat coerces a value that may be nil, a number, or a string with a comma
// decimal separator and stray non-numeric characters (currency symbols).
// The second return is false when the value is nil or unparseable.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.Replace(n, ",", ".", 1)
		var b strings.Builder
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				b.WriteRune(r)
			}
		}
		return parseFloatPrefix(b.String())
	default:
		return 0, false
	}
}

// parseFloatPrefix parses the longest valid leading float, so "1.234.56"
// yields 1.234 the way a lenient client-side parse would.
func parseFloatPrefix(s string) (float64, bool) {
	end := 0
	seenDot := false
	seenDigit := false
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r == '.' && !seenDot:
			seenDot = true
		case r >= '0' && r <= '9':
			seenDigit = true
		default:
			goto parse
		}
		end = i + 1
	}
parse:
	if !seenDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Compute derives a NormalizedReceipt from a partial TicketInfo. It never
// fails: every missing or malformed field degrades to its default. Aside from
// the generated transaction/ticket identifiers (only when the source omits
// them) the result is a pure function of the inputs.
func Compute(info TicketInfo, confidence float64) NormalizedReceipt {
	vendor := info.Vendor
	if vendor == "" {
		vendor = DefaultVendor
	}

	location := info.Location
	if location == "" {
		location = info.City
	}
	if location == "" {
		location = DefaultLocation
	}

	currency := info.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	vatRate := DefaultVATRate
	if r, ok := ToFloat(info.VATRate); ok {
		vatRate = r
	}

	payMethod := info.PaymentMethod
	if payMethod == "" {
		payMethod = DefaultPaymentMethod
	}

	category := info.Category
	if category == "" {
		category = DefaultCategory
	}

	date := info.Date
	if date == "" {
		date = time.Now().Format(time.RFC3339)
	}

	amount, amountOK := ToFloat(info.Amount)

	var items []Item
	if len(info.Items) > 0 {
		items = make([]Item, 0, len(info.Items))
		for _, it := range info.Items {
			label := it.Label
			if label == "" {
				label = DefaultItemLabel
			}
			qty, ok := ToFloat(it.Qty)
			if !ok {
				qty = 1
			}
			unitPrice, ok := ToFloat(it.UnitPrice)
			if !ok {
				if amountOK {
					unitPrice = amount
				} else {
					unitPrice = 0
				}
			}
			items = append(items, Item{Label: label, Qty: qty, UnitPrice: unitPrice})
		}
	} else {
		unitPrice := 0.0
		if amountOK {
			unitPrice = amount
		}
		items = []Item{{Label: category, Qty: 1, UnitPrice: unitPrice}}
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.Qty * it.UnitPrice
	}

	var vat float64
	if vatRate > 0 {
		vat = subtotal * vatRate / 100
	}

	// An explicit total from the source always wins over the computed sum.
	totalTTC := subtotal + vat
	if t, ok := ToFloat(info.TotalAmount); ok {
		totalTTC = t
	} else if amountOK {
		totalTTC = amount
	}

	txID := info.TransactionID
	if txID == "" {
		txID = "TX" + randomBase36(8)
	}
	ticketNumber := info.TicketNumber
	if ticketNumber == "" {
		ticketNumber = "#" + randomBase36(4)
	}
	merchantID := info.MerchantID
	if merchantID == "" {
		merchantID = DefaultMerchantID
	}

	return NormalizedReceipt{
		Vendor:         vendor,
		Location:       location,
		Filename:       orDash(info.Filename),
		Currency:       currency,
		VATRatePercent: vatRate,
		PaymentMethod:  payMethod,
		Category:       category,
		Date:           date,
		Items:          items,
		Subtotal:       subtotal,
		VAT:            vat,
		TotalTTC:       totalTTC,
		Confidence:     confidence,
		TransactionID:  txID,
		TicketNumber:   ticketNumber,
		MerchantID:     merchantID,
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = base36Alphabet[rand.Intn(len(base36Alphabet))]
	}
	return string(b)
}
