package service

import (
	"context"
	"testing"
	"time"

	"te-chatbot/internal/models"
	"te-chatbot/internal/receipt"

	"go.uber.org/zap"
)

func policyWithRules(rules map[string][]models.Rule) *PolicyService {
	s := NewPolicyService(zap.NewNop())
	s.rules = rules
	s.lastLoaded = time.Now()
	return s
}

func TestNormalizeCriteria(t *testing.T) {
	tests := []struct {
		name string
		info receipt.TicketInfo
		want RuleCriteria
	}{
		{
			name: "city marker in location",
			info: receipt.TicketInfo{Location: "12 rue de Rivoli, Paris", Currency: "eur", Category: "meals"},
			want: RuleCriteria{Country: "FR", Currency: "EUR", ExpenseType: "MEALS"},
		},
		{
			name: "country from currency",
			info: receipt.TicketInfo{Currency: "GBP", Category: "TRANSPORT"},
			want: RuleCriteria{Country: "GB", Currency: "GBP", ExpenseType: "TRANSPORT"},
		},
		{
			name: "all defaults",
			info: receipt.TicketInfo{},
			want: RuleCriteria{Country: "FR", Currency: "EUR", ExpenseType: "GENERAL"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeCriteria(tt.info); got != tt.want {
				t.Errorf("normalizeCriteria() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateAgainstRules(t *testing.T) {
	rules := []models.Rule{{Country: "FR", Currency: "EUR", ExpenseType: "MEALS", AmountLimit: 35}}

	v := validateAgainstRules(20, true, rules)
	if !v.IsValid || v.Status != "approved" || !v.WithinLimits {
		t.Errorf("within limit: %+v", v)
	}

	v = validateAgainstRules(50, true, rules)
	if v.IsValid || v.Status != "error" || v.WithinLimits {
		t.Errorf("over limit: %+v", v)
	}
	if len(v.Issues) != 1 {
		t.Errorf("issues = %v", v.Issues)
	}

	v = validateAgainstRules(0, false, rules)
	if v.Status != "pending_review" {
		t.Errorf("no amount: %+v", v)
	}

	v = validateAgainstRules(20, true, nil)
	if v.Status != "pending_review" {
		t.Errorf("no rules: %+v", v)
	}
}

func TestAnalyzeTicketPass(t *testing.T) {
	policy := policyWithRules(map[string][]models.Rule{
		"Meals": {{SheetName: "Meals", Country: "FR", Currency: "EUR", ExpenseType: "MEALS", AmountLimit: 35}},
	})
	s := NewAnalyzerService(policy, nil, nil, zap.NewNop())

	info := receipt.TicketInfo{
		Vendor:      "CAFE DE FLORE",
		Location:    "Paris",
		Currency:    "EUR",
		Category:    "MEALS",
		TotalAmount: "28,50",
	}

	result, analysisID, err := s.AnalyzeTicket(context.Background(), "demo", info, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Result != "PASS" {
		t.Errorf("result = %q, want PASS", result.Result)
	}
	if len(result.AppliedRules) != 1 {
		t.Errorf("applied rules = %d", len(result.AppliedRules))
	}
	// 0.5 base + 0.3 rules + 0.1 amount + 0.1 currency.
	if result.ConfidenceScore != 1.0 {
		t.Errorf("confidence = %v, want 1.0", result.ConfidenceScore)
	}
	if result.Justification == "" {
		t.Error("justification should not be empty without an LLM")
	}
	if analysisID == "" {
		t.Error("analysis id should be set")
	}
}

func TestAnalyzeTicketOverLimit(t *testing.T) {
	policy := policyWithRules(map[string][]models.Rule{
		"Meals": {{SheetName: "Meals", Country: "FR", Currency: "EUR", ExpenseType: "MEALS", AmountLimit: 35}},
	})
	s := NewAnalyzerService(policy, nil, nil, zap.NewNop())

	info := receipt.TicketInfo{
		Location:    "Paris",
		Currency:    "EUR",
		Category:    "MEALS",
		TotalAmount: 120.0,
	}

	result, _, err := s.AnalyzeTicket(context.Background(), "demo", info, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Result != "FAIL" {
		t.Errorf("result = %q, want FAIL", result.Result)
	}
	if result.BasicValidation.WithinLimits {
		t.Error("should be over limit")
	}
	if len(result.Recommendations) == 0 {
		t.Error("over-limit analysis should carry recommendations")
	}
}

func TestAnalyzeTicketNoMatchingRules(t *testing.T) {
	policy := NewPolicyService(zap.NewNop())
	s := NewAnalyzerService(policy, nil, nil, zap.NewNop())

	info := receipt.TicketInfo{Currency: "EUR", Category: "MEALS", TotalAmount: 12.0}

	result, _, err := s.AnalyzeTicket(context.Background(), "demo", info, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Result != "REVIEW" {
		t.Errorf("result = %q, want REVIEW", result.Result)
	}
	// 0.5 base + 0.1 amount + 0.1 currency, no rule bonus.
	if result.ConfidenceScore != 0.7 {
		t.Errorf("confidence = %v, want 0.7", result.ConfidenceScore)
	}
}
