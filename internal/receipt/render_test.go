package receipt

import (
	"strings"
	"testing"
)

func TestRenderEscapesInterpolatedText(t *testing.T) {
	r := Compute(TicketInfo{
		Vendor:   "<script>alert(1)</script>",
		Filename: "evil<img>.jpg",
	}, 0.9)

	html, err := Render(r)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	if strings.Contains(html, "<script>") || strings.Contains(html, "<SCRIPT>") {
		t.Error("vendor was interpolated without escaping")
	}
	if strings.Contains(html, "<img>") {
		t.Error("filename was interpolated without escaping")
	}
	// The vendor is uppercased before templating, so the escaped form is too.
	if !strings.Contains(html, "&lt;SCRIPT&gt;") {
		t.Error("expected escaped vendor text in output")
	}
	if !strings.Contains(html, "evil&lt;img&gt;.jpg") {
		t.Error("expected escaped filename in output")
	}
}

func TestRenderContent(t *testing.T) {
	info := TicketInfo{
		Vendor:   "Hotel Lutetia",
		Currency: "EUR",
		VATRate:  10,
		Items:    []TicketItem{{Label: "Night", Qty: 2, UnitPrice: 150}},
	}
	r := Compute(info, 0.85)

	html, err := Render(r)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	for _, want := range []string{
		"HOTEL LUTETIA",
		"AI Confidence: High (85%)",
		"TOTAL TTC",
		"NIGHT",
		"SOUS-TOTAL",
		"TVA (10%)",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered receipt missing %q", want)
		}
	}
}
