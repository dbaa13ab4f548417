package service

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func buildRulesWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Meals"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	rows := [][]interface{}{
		{"Country", "Currency", "Expense Type", "Amount Limit", "Description"},
		{"FR", "EUR", "MEALS", "35,00", "Meal limit in France"},
		{"GB", "GBP", "MEALS", 40, "Meal limit in the UK"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func buildPolicyDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(body.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPolicyServiceLoadFromUpload(t *testing.T) {
	s := NewPolicyService(zap.NewNop())

	if s.Status().DocumentsLoaded {
		t.Fatal("fresh service should have no documents")
	}

	count, err := s.LoadFromUpload(
		buildRulesWorkbook(t),
		buildPolicyDocx(t, "Meals are capped per country.", "Taxis require a receipt."),
	)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("rule count = %d, want 2", count)
	}

	status := s.Status()
	if !status.DocumentsLoaded {
		t.Error("documents should be loaded")
	}
	if status.ExcelRulesCount != 2 {
		t.Errorf("ExcelRulesCount = %d", status.ExcelRulesCount)
	}
	if !status.WordPoliciesAvailable {
		t.Error("word policies should be available")
	}

	rules := s.Rules()["Meals"]
	if len(rules) != 2 {
		t.Fatalf("Meals rules = %d", len(rules))
	}
	if rules[0].Country != "FR" || rules[0].Currency != "EUR" || rules[0].ExpenseType != "MEALS" {
		t.Errorf("rule = %+v", rules[0])
	}
	// "35,00" goes through the separator normalizer.
	if rules[0].AmountLimit != 35.0 {
		t.Errorf("AmountLimit = %v, want 35", rules[0].AmountLimit)
	}

	text := s.PoliciesText()
	if text != "Meals are capped per country.\nTaxis require a receipt." {
		t.Errorf("policies text = %q", text)
	}
}

func TestPolicyServiceFindRules(t *testing.T) {
	s := NewPolicyService(zap.NewNop())
	if _, err := s.LoadFromUpload(buildRulesWorkbook(t), buildPolicyDocx(t, "p")); err != nil {
		t.Fatal(err)
	}

	matched := s.FindRules(RuleCriteria{Country: "FR", Currency: "EUR", ExpenseType: "MEALS"})
	if len(matched) != 1 {
		t.Fatalf("matched = %d, want 1", len(matched))
	}
	if matched[0].Country != "FR" {
		t.Errorf("country = %q", matched[0].Country)
	}

	if got := s.FindRules(RuleCriteria{Country: "DE", Currency: "EUR", ExpenseType: "MEALS"}); len(got) != 0 {
		t.Errorf("DE should match nothing, got %d", len(got))
	}
}

func TestPolicyServiceRejectsBadUpload(t *testing.T) {
	s := NewPolicyService(zap.NewNop())
	if _, err := s.LoadFromUpload(buildRulesWorkbook(t), buildPolicyDocx(t, "kept")); err != nil {
		t.Fatal(err)
	}

	// A broken upload must not clobber the loaded documents.
	if _, err := s.LoadFromUpload([]byte("not a workbook"), []byte("not a docx")); err == nil {
		t.Fatal("expected error for invalid files")
	}
	if s.PoliciesText() != "kept" {
		t.Errorf("policies text = %q, want previous content kept", s.PoliciesText())
	}
}

func TestParseDocxTextMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/other.xml"); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	if _, err := parseDocxText(buf.Bytes()); err == nil {
		t.Fatal("expected error when document.xml is missing")
	}
}
