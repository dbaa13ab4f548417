package service

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"te-chatbot/internal/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// PolicyService holds the current T&E policy documents: expense rules from an
// Excel workbook and policy prose from a Word document. Documents live in
// memory and are replaced atomically on each upload.
type PolicyService struct {
	mu           sync.RWMutex
	rules        map[string][]models.Rule
	policiesText string
	lastLoaded   time.Time
	logger       *zap.Logger
}

func NewPolicyService(logger *zap.Logger) *PolicyService {
	return &PolicyService{
		rules:  make(map[string][]models.Rule),
		logger: logger,
	}
}

type PolicyStatus struct {
	DocumentsLoaded       bool
	LastLoaded            time.Time
	ExcelRulesCount       int
	WordPoliciesAvailable bool
	WordPoliciesLength    int
}

// RuleCriteria filters the loaded rules during analysis.
type RuleCriteria struct {
	Country     string
	Currency    string
	ExpenseType string
}

// LoadFromUpload replaces the current documents with freshly parsed ones.
// Both files are parsed before the swap so a bad upload cannot leave the
// service half-loaded.
func (s *PolicyService) LoadFromUpload(excelData, wordData []byte) (int, error) {
	rules, err := parseExcelRules(excelData)
	if err != nil {
		return 0, fmt.Errorf("failed to parse Excel rules: %w", err)
	}

	policiesText, err := parseDocxText(wordData)
	if err != nil {
		return 0, fmt.Errorf("failed to parse Word policies: %w", err)
	}

	count := 0
	for _, sheetRules := range rules {
		count += len(sheetRules)
	}

	s.mu.Lock()
	s.rules = rules
	s.policiesText = policiesText
	s.lastLoaded = time.Now()
	s.mu.Unlock()

	s.logger.Info("Policy documents loaded",
		zap.Int("rules", count),
		zap.Int("sheets", len(rules)),
		zap.Int("policies_length", len(policiesText)),
	)

	return count, nil
}

func (s *PolicyService) Status() PolicyStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sheetRules := range s.rules {
		count += len(sheetRules)
	}

	return PolicyStatus{
		DocumentsLoaded:       !s.lastLoaded.IsZero(),
		LastLoaded:            s.lastLoaded,
		ExcelRulesCount:       count,
		WordPoliciesAvailable: s.policiesText != "",
		WordPoliciesLength:    len(s.policiesText),
	}
}

func (s *PolicyService) Rules() map[string][]models.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]models.Rule, len(s.rules))
	for sheet, sheetRules := range s.rules {
		out[sheet] = append([]models.Rule(nil), sheetRules...)
	}
	return out
}

func (s *PolicyService) PoliciesText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policiesText
}

func (s *PolicyService) LastLoaded() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoaded
}

// FindRules returns the rules matching the criteria. Rules with an empty
// country or currency act as wildcards, an exact expense-type match is
// preferred but GENERAL rules apply everywhere.
func (s *PolicyService) FindRules(criteria RuleCriteria) []models.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Rule
	for _, sheetRules := range s.rules {
		for _, rule := range sheetRules {
			if rule.Country != "" && criteria.Country != "" && !strings.EqualFold(rule.Country, criteria.Country) {
				continue
			}
			if rule.Currency != "" && criteria.Currency != "" && !strings.EqualFold(rule.Currency, criteria.Currency) {
				continue
			}
			if rule.ExpenseType != "" &&
				!strings.EqualFold(rule.ExpenseType, criteria.ExpenseType) &&
				!strings.EqualFold(rule.ExpenseType, "GENERAL") {
				continue
			}
			matched = append(matched, rule)
		}
	}
	return matched
}

// RulesSummary is the compact rules digest injected into chat prompts.
func (s *PolicyService) RulesSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.rules) == 0 {
		return ""
	}

	var b strings.Builder
	for sheet, sheetRules := range s.rules {
		fmt.Fprintf(&b, "Sheet %q: %d rules\n", sheet, len(sheetRules))
		for _, rule := range sheetRules {
			fmt.Fprintf(&b, "  - %s / %s / %s: limit %.2f %s\n",
				rule.Country, rule.Currency, rule.ExpenseType, rule.AmountLimit, rule.Currency)
		}
	}
	return b.String()
}

// Excel column headers recognized in the rules workbook, case-insensitive.
var ruleHeaders = map[string]string{
	"country":      "country",
	"pays":         "country",
	"currency":     "currency",
	"devise":       "currency",
	"expense type": "expense_type",
	"expense_type": "expense_type",
	"type":         "expense_type",
	"amount limit": "amount_limit",
	"amount_limit": "amount_limit",
	"limit":        "amount_limit",
	"plafond":      "amount_limit",
	"description":  "description",
}

func parseExcelRules(data []byte) (map[string][]models.Rule, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	rules := make(map[string][]models.Rule)
	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		// Map header cells to rule fields, skip sheets with no known headers.
		columns := make(map[int]string)
		for i, cell := range rows[0] {
			if field, ok := ruleHeaders[strings.ToLower(strings.TrimSpace(cell))]; ok {
				columns[i] = field
			}
		}
		if len(columns) == 0 {
			continue
		}

		for _, row := range rows[1:] {
			rule := models.Rule{SheetName: sheet}
			empty := true
			for i, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				switch columns[i] {
				case "country":
					rule.Country = strings.ToUpper(cell)
					empty = false
				case "currency":
					rule.Currency = strings.ToUpper(cell)
					empty = false
				case "expense_type":
					rule.ExpenseType = strings.ToUpper(cell)
					empty = false
				case "amount_limit":
					if f, err := strconv.ParseFloat(cleanAmount(cell), 64); err == nil {
						rule.AmountLimit = f
						empty = false
					}
				case "description":
					rule.Description = cell
					empty = false
				}
			}
			if !empty {
				rules[sheet] = append(rules[sheet], rule)
			}
		}
	}

	return rules, nil
}

// docx paragraph structure, only the text runs matter here.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

// parseDocxText pulls paragraph text out of word/document.xml. A .docx file
// is a zip archive, no external library is needed for plain text.
func parseDocxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	var documentXML []byte
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			rc, err := file.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document.xml: %w", err)
			}
			documentXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("failed to read document.xml: %w", err)
			}
			break
		}
	}
	if documentXML == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}

	var doc docxDocument
	if err := xml.Unmarshal(documentXML, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var b strings.Builder
	for _, p := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range p.Runs {
			line.WriteString(r.Text)
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	return sanitizeUTF8(strings.TrimSpace(b.String())), nil
}
