package service

import (
	"testing"

	"te-chatbot/internal/receipt"
)

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12,50", "12.50"},
		{"12.50", "12.50"},
		{"1 234,56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"1,234", "1234"},
		{"1.234", "1234"},
		{"210.00", "210.00"},
		{"0,99", "0.99"},
	}
	for _, tt := range tests {
		if got := cleanAmount(tt.in); got != tt.want {
			t.Errorf("cleanAmount(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	if f, ok := parseAmount("1 234,56"); !ok || f != 1234.56 {
		t.Errorf("parseAmount(\"1 234,56\") = %v, %v", f, ok)
	}
	if _, ok := parseAmount("abc"); ok {
		t.Error("parseAmount(\"abc\") should fail")
	}
}

func TestParseTicketTextHotelBill(t *testing.T) {
	text := `HOTEL LUTETIA
45 Boulevard Raspail, Paris
Facture No: F-2024-118
Date: 12/03/2024 09:15
1 x Chambre double  180.00
2 x Petit dejeuner  15.00
TVA 10% : 19.09
TOTAL TTC : 210.00 EUR
Paiement: Carte Bancaire`

	info, confidence := parseTicketText(text, "facture.pdf", "pdf")

	if info.Vendor != "HOTEL LUTETIA" {
		t.Errorf("vendor = %q", info.Vendor)
	}
	if total, ok := receipt.ToFloat(info.TotalAmount); !ok || total != 210.00 {
		t.Errorf("total = %v", info.TotalAmount)
	}
	if info.Currency != "EUR" {
		t.Errorf("currency = %q", info.Currency)
	}
	if info.Date != "12/03/2024 09:15" {
		t.Errorf("date = %q", info.Date)
	}
	if rate, ok := receipt.ToFloat(info.VATRate); !ok || rate != 10 {
		t.Errorf("vat rate = %v", info.VATRate)
	}
	if info.TicketNumber != "F-2024-118" {
		t.Errorf("ticket number = %q", info.TicketNumber)
	}
	if info.PaymentMethod != "CB / CREDIT CARD" {
		t.Errorf("payment method = %q", info.PaymentMethod)
	}
	if info.Category != "ACCOMMODATION" {
		t.Errorf("category = %q", info.Category)
	}
	if len(info.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(info.Items))
	}
	if info.Items[0].Label != "Chambre double" {
		t.Errorf("item label = %q", info.Items[0].Label)
	}
	// Every scored field is present, so the heuristic must reach full score.
	if confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", confidence)
	}
}

func TestParseTicketTextSparse(t *testing.T) {
	info, confidence := parseTicketText("lorem ipsum dolor", "note.txt", "text")

	if info.TotalAmount != nil || info.Amount != nil {
		t.Error("no amount should be extracted")
	}
	if info.Currency != "" {
		t.Errorf("currency = %q, want empty", info.Currency)
	}
	if confidence > 0.3 {
		t.Errorf("confidence = %v, want low", confidence)
	}
}

func TestParseTicketTextAmountFallback(t *testing.T) {
	text := `TAXI G7 PARIS
Course 23,40 €
Supplement 4,00 €`

	info, _ := parseTicketText(text, "taxi.txt", "text")

	if info.TotalAmount != nil {
		t.Errorf("total = %v, want nil", info.TotalAmount)
	}
	// Largest currency-adjacent amount wins.
	if amount, ok := receipt.ToFloat(info.Amount); !ok || amount != 23.40 {
		t.Errorf("amount = %v, want 23.40", info.Amount)
	}
	if info.Category != "TRANSPORT" {
		t.Errorf("category = %q", info.Category)
	}
}
