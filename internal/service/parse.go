package service

import (
	"regexp"
	"strconv"
	"strings"

	"te-chatbot/internal/receipt"
)

// Heuristic receipt text parsing. This is the fallback when the LLM
// extraction fails and the base the LLM result is merged over.

var (
	totalAmountRe = regexp.MustCompile(`(?i)(?:total\s*(?:ttc|t\.t\.c)?|montant\s*(?:total|ttc)?|net\s*(?:a|à)\s*payer|amount\s*due|grand\s*total)\s*:?\s*([0-9][0-9 .,]*)`)
	anyAmountRe   = regexp.MustCompile(`([0-9][0-9 .,]*[0-9]|[0-9])\s*(?:€|EUR|USD|GBP|CHF|\$|£)`)
	vatRateRe     = regexp.MustCompile(`(?i)(?:tva|vat|tax)\s*:?\s*\(?([0-9]{1,2}(?:[.,][0-9]{1,2})?)\s*%`)
	dateRes       = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?)\b`),
		regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4}(?:\s+\d{2}:\d{2})?)\b`),
		regexp.MustCompile(`\b(\d{2}\.\d{2}\.\d{4})\b`),
	}
	ticketNumberRe = regexp.MustCompile(`(?i)(?:ticket|receipt|facture|invoice|note)\s*(?:n[o°]?\.?|#|num(?:ber)?)\s*:?\s*([A-Z0-9-]{2,})`)
	merchantIDRe   = regexp.MustCompile(`(?i)(?:siret|siren|tva\s*(?:intra)?|vat\s*(?:no|number|reg))\s*:?\s*([A-Z0-9 ]{4,20})`)
	itemLineRe     = regexp.MustCompile(`(?m)^\s*(\d{1,2})\s*[xX]\s+(.{2,40}?)\s+([0-9]+[.,][0-9]{2})\s*$`)
)

var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"€", "EUR"},
	{"EUR", "EUR"},
	{"$", "USD"},
	{"USD", "USD"},
	{"£", "GBP"},
	{"GBP", "GBP"},
	{"CHF", "CHF"},
}

var paymentMarkers = []struct {
	marker string
	method string
}{
	{"carte bancaire", "CB / CREDIT CARD"},
	{"credit card", "CB / CREDIT CARD"},
	{"carte", "CB / CREDIT CARD"},
	{" cb", "CB / CREDIT CARD"},
	{"visa", "CB / CREDIT CARD"},
	{"mastercard", "CB / CREDIT CARD"},
	{"especes", "CASH"},
	{"espèces", "CASH"},
	{"cash", "CASH"},
	{"cheque", "CHEQUE"},
	{"chèque", "CHEQUE"},
	{"virement", "TRANSFER"},
	{"transfer", "TRANSFER"},
}

// Checked in order, accommodation markers beat meal markers so a hotel bill
// with a breakfast line stays ACCOMMODATION.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"ACCOMMODATION", []string{"hotel", "hôtel", "nuit", "night", "chambre", "room", "lodging", "hebergement", "hébergement"}},
	{"TRANSPORT", []string{"taxi", "uber", "train", "sncf", "flight", "vol ", "airline", "peage", "péage", "parking", "essence", "fuel", "carburant", "metro", "métro"}},
	{"MEALS", []string{"restaurant", "cafe", "café", "brasserie", "bistro", "pizzeria", "menu", "plat", "dejeuner", "déjeuner", "dinner", "lunch", "bar "}},
	{"SUPPLIES", []string{"papeterie", "fourniture", "office", "supplies", "bureau"}},
}

// cleanAmount normalizes a printed amount into a dot-decimal string.
// Handles "1 234,56", "1.234,56", "1,234.56" and plain "12,50".
func cleanAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The separator that appears last is the decimal one.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// A lone comma is a decimal separator unless it looks like a
		// thousands group ("1,234").
		if len(s)-lastComma-1 == 3 && lastComma > 0 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if len(s)-lastDot-1 == 3 && strings.Count(s, ".") == 1 && lastDot > 0 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	return s
}

func parseAmount(s string) (float64, bool) {
	f, err := strconv.ParseFloat(cleanAmount(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseTicketText extracts what it can from raw receipt text and scores the
// extraction by how many key fields were found.
func parseTicketText(text, filename, fileType string) (receipt.TicketInfo, float64) {
	info := receipt.TicketInfo{
		Filename: filename,
		FileType: fileType,
		RawText:  text,
	}

	lower := strings.ToLower(text)
	found := 0
	const keyFields = 7

	if m := totalAmountRe.FindStringSubmatch(text); m != nil {
		if f, ok := parseAmount(m[1]); ok {
			info.TotalAmount = f
			found++
		}
	}
	if info.TotalAmount == nil {
		// Largest currency-adjacent amount is the best total candidate.
		var best float64
		var has bool
		for _, m := range anyAmountRe.FindAllStringSubmatch(text, -1) {
			if f, ok := parseAmount(m[1]); ok && (!has || f > best) {
				best, has = f, true
			}
		}
		if has {
			info.Amount = best
			found++
		}
	}

	for _, cm := range currencyMarkers {
		if strings.Contains(text, cm.marker) {
			info.Currency = cm.code
			found++
			break
		}
	}

	for _, re := range dateRes {
		if m := re.FindStringSubmatch(text); m != nil {
			info.Date = m[1]
			found++
			break
		}
	}

	if m := vatRateRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64); err == nil {
			info.VATRate = f
			found++
		}
	}

	if m := ticketNumberRe.FindStringSubmatch(text); m != nil {
		info.TicketNumber = m[1]
	}
	if m := merchantIDRe.FindStringSubmatch(text); m != nil {
		info.MerchantID = strings.TrimSpace(m[1])
	}

	if vendor := firstPlausibleLine(text); vendor != "" {
		info.Vendor = vendor
		found++
	}

	for _, pm := range paymentMarkers {
		if strings.Contains(lower, pm.marker) {
			info.PaymentMethod = pm.method
			found++
			break
		}
	}

	for _, ck := range categoryKeywords {
		for _, kw := range ck.keywords {
			if strings.Contains(lower, kw) {
				info.Category = ck.category
				found++
				break
			}
		}
		if info.Category != "" {
			break
		}
	}

	for _, m := range itemLineRe.FindAllStringSubmatch(text, -1) {
		qty, _ := strconv.Atoi(m[1])
		price, _ := parseAmount(m[3])
		info.Items = append(info.Items, receipt.TicketItem{
			Label:     strings.TrimSpace(m[2]),
			Qty:       qty,
			UnitPrice: price,
		})
	}

	confidence := float64(found) / float64(keyFields)
	if confidence > 1 {
		confidence = 1
	}
	return info, confidence
}

// firstPlausibleLine picks the first non-empty line that is not an amount,
// a date or boilerplate. Receipts print the merchant name at the top.
func firstPlausibleLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) < 3 || len(line) > 60 {
			continue
		}
		if totalAmountRe.MatchString(line) || anyAmountRe.MatchString(line) {
			continue
		}
		dated := false
		for _, re := range dateRes {
			if re.MatchString(line) {
				dated = true
				break
			}
		}
		if dated {
			continue
		}
		letters := 0
		for _, r := range line {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				letters++
			}
		}
		if letters < 3 {
			continue
		}
		return line
	}
	return ""
}
