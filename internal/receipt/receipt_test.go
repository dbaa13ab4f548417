package receipt

import (
	"math"
	"testing"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		ok    bool
	}{
		{"comma decimal with symbol", "12,50 €", 12.5, true},
		{"nil", nil, 0, false},
		{"garbage", "abc", 0, false},
		{"plain number", 42.5, 42.5, true},
		{"int", 3, 3, true},
		{"plain string", "19.99", 19.99, true},
		{"currency prefix", "$25.00", 25, true},
		{"negative", "-7,5", -7.5, true},
		{"empty string", "", 0, false},
		{"lone minus", "-", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.input)
			if ok != tt.ok {
				t.Fatalf("ToFloat(%v): ok=%v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ToFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestComputeDefaults(t *testing.T) {
	r := Compute(TicketInfo{}, 0.9)

	if r.Vendor != "MERCHANT / COMMERÇANT" {
		t.Errorf("vendor = %q", r.Vendor)
	}
	if r.Currency != "EUR" {
		t.Errorf("currency = %q", r.Currency)
	}
	if r.VATRatePercent != 20 {
		t.Errorf("vat rate = %v", r.VATRatePercent)
	}
	if r.Location != "—" {
		t.Errorf("location = %q", r.Location)
	}
	if len(r.Items) != 1 {
		t.Fatalf("expected one synthesized item, got %d", len(r.Items))
	}
	item := r.Items[0]
	if item.Label != "GENERAL" || item.Qty != 1 || item.UnitPrice != 0 {
		t.Errorf("synthesized item = %+v", item)
	}
	if r.Subtotal != 0 || r.VAT != 0 || r.TotalTTC != 0 {
		t.Errorf("totals = %v/%v/%v, want 0/0/0", r.Subtotal, r.VAT, r.TotalTTC)
	}
	if r.TransactionID == "" || r.TicketNumber == "" {
		t.Error("expected generated transaction and ticket identifiers")
	}
}

func TestComputeIdempotentTotals(t *testing.T) {
	info := TicketInfo{
		Vendor:   "Café de la Gare",
		Currency: "EUR",
		VATRate:  "10",
		Items: []TicketItem{
			{Label: "Menu", Qty: 2, UnitPrice: "15,50"},
			{Label: "Café", Qty: 1, UnitPrice: 2.2},
		},
	}

	a := Compute(info, 0.75)
	b := Compute(info, 0.75)

	if a.Subtotal != b.Subtotal || a.VAT != b.VAT || a.TotalTTC != b.TotalTTC {
		t.Errorf("totals differ between runs: %+v vs %+v", a, b)
	}
	if math.Abs(a.Subtotal-33.2) > 1e-9 {
		t.Errorf("subtotal = %v, want 33.2", a.Subtotal)
	}
}

func TestComputeExplicitTotalWins(t *testing.T) {
	info := TicketInfo{
		VATRate:     20,
		TotalAmount: "100",
		Items:       []TicketItem{{Qty: 2, UnitPrice: 10}},
	}

	r := Compute(info, 0.9)

	if r.Subtotal != 20 {
		t.Errorf("subtotal = %v, want 20", r.Subtotal)
	}
	if r.VAT != 4 {
		t.Errorf("vat = %v, want 4", r.VAT)
	}
	if r.TotalTTC != 100 {
		t.Errorf("total = %v, want the explicit 100", r.TotalTTC)
	}
}

func TestComputeMultiItemSubtotal(t *testing.T) {
	info := TicketInfo{
		Items: []TicketItem{
			{Qty: 1, UnitPrice: 9.99},
			{Qty: 3, UnitPrice: 2},
		},
	}

	r := Compute(info, 0.6)

	if math.Abs(r.Subtotal-15.99) > 1e-9 {
		t.Errorf("subtotal = %v, want 15.99", r.Subtotal)
	}
	if r.Items[0].Label != "Article" {
		t.Errorf("item label default = %q, want Article", r.Items[0].Label)
	}
}

func TestComputeZeroVATRate(t *testing.T) {
	info := TicketInfo{
		VATRate: 0,
		Items:   []TicketItem{{Qty: 1, UnitPrice: 50}},
	}

	r := Compute(info, 0.9)

	if r.VAT != 0 {
		t.Errorf("vat = %v, want 0 when rate is 0", r.VAT)
	}
	if r.TotalTTC != 50 {
		t.Errorf("total = %v, want 50", r.TotalTTC)
	}
}

func TestComputeItemPriceFallsBackToAmount(t *testing.T) {
	info := TicketInfo{
		Amount: "12,30",
		Items:  []TicketItem{{Label: "Taxi"}},
	}

	r := Compute(info, 0.5)

	if r.Items[0].UnitPrice != 12.3 {
		t.Errorf("unit price = %v, want the ticket amount 12.3", r.Items[0].UnitPrice)
	}
	if r.Items[0].Qty != 1 {
		t.Errorf("qty = %v, want default 1", r.Items[0].Qty)
	}
}

func TestComputeSourceIdentifiersKept(t *testing.T) {
	info := TicketInfo{TransactionID: "TX123", TicketNumber: "#42"}

	r := Compute(info, 0.9)

	if r.TransactionID != "TX123" || r.TicketNumber != "#42" {
		t.Errorf("identifiers = %q/%q, want the source values", r.TransactionID, r.TicketNumber)
	}
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		label      string
		color      string
	}{
		{0.8, "High", "success"},
		{0.7999, "Medium", "warning"},
		{0.5, "Medium", "warning"},
		{0.4999, "Low", "danger"},
		{1.0, "High", "success"},
		{0, "Low", "danger"},
	}

	for _, tt := range tests {
		tier := TierFor(tt.confidence)
		if tier.Label() != tt.label {
			t.Errorf("TierFor(%v).Label() = %q, want %q", tt.confidence, tier.Label(), tt.label)
		}
		if tier.Color() != tt.color {
			t.Errorf("TierFor(%v).Color() = %q, want %q", tt.confidence, tier.Color(), tt.color)
		}
	}
}
