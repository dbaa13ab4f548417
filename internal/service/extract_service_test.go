package service

import (
	"context"
	"strings"
	"testing"

	"te-chatbot/internal/receipt"

	"go.uber.org/zap"
)

func TestExtractFromText(t *testing.T) {
	s, err := NewExtractService(nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	data := []byte(`RESTAURANT LE PETIT ZINC
Ticket No: 4821
Date: 2024-03-12
TOTAL: 28,50 EUR
Paiement: CB`)

	info, confidence, err := s.Extract(context.Background(), data, "dejeuner.txt")
	if err != nil {
		t.Fatal(err)
	}
	if info.Vendor != "RESTAURANT LE PETIT ZINC" {
		t.Errorf("vendor = %q", info.Vendor)
	}
	if total, ok := receipt.ToFloat(info.TotalAmount); !ok || total != 28.50 {
		t.Errorf("total = %v", info.TotalAmount)
	}
	if info.FileType != "text" {
		t.Errorf("file type = %q", info.FileType)
	}
	if confidence <= 0 || confidence > 1 {
		t.Errorf("confidence = %v", confidence)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	s, err := NewExtractService(nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = s.Extract(context.Background(), []byte("x"), "archive.tar.gz")
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractEmptyText(t *testing.T) {
	s, err := NewExtractService(nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Extract(context.Background(), []byte("   \n"), "empty.txt"); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestMergeTicketInfoOverlay(t *testing.T) {
	base := receipt.TicketInfo{
		Vendor:   "OCR VENDOR",
		Filename: "a.txt",
		RawText:  "raw",
		Currency: "EUR",
	}
	llm := receipt.TicketInfo{
		Vendor:      "Hotel Lutetia",
		TotalAmount: 210.0,
		Category:    "accommodation",
	}

	out := mergeTicketInfo(base, llm)
	if out.Vendor != "Hotel Lutetia" {
		t.Errorf("vendor = %q", out.Vendor)
	}
	if out.Currency != "EUR" {
		t.Errorf("currency = %q, base value should survive", out.Currency)
	}
	if out.Category != "ACCOMMODATION" {
		t.Errorf("category = %q, want uppercased", out.Category)
	}
	if out.Filename != "a.txt" || out.RawText != "raw" {
		t.Error("base file identity should survive")
	}
}
