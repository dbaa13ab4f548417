package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/models"
	"te-chatbot/internal/receipt"
	"te-chatbot/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalyzerService checks extracted tickets against the loaded expense rules
// and answers policy questions over chat.
type AnalyzerService struct {
	policyService *PolicyService
	llmService    *LLMService
	analysisRepo  *repository.AnalysisRepository
	logger        *zap.Logger
}

func NewAnalyzerService(
	policyService *PolicyService,
	llmService *LLMService,
	analysisRepo *repository.AnalysisRepository,
	logger *zap.Logger,
) *AnalyzerService {
	return &AnalyzerService{
		policyService: policyService,
		llmService:    llmService,
		analysisRepo:  analysisRepo,
		logger:        logger,
	}
}

// country names and city markers recognized in vendor/location text.
var countryMarkers = []struct {
	marker  string
	country string
}{
	{"france", "FR"},
	{"paris", "FR"},
	{"lyon", "FR"},
	{"marseille", "FR"},
	{"germany", "DE"},
	{"deutschland", "DE"},
	{"berlin", "DE"},
	{"munich", "DE"},
	{"spain", "ES"},
	{"españa", "ES"},
	{"madrid", "ES"},
	{"barcelona", "ES"},
	{"italy", "IT"},
	{"italia", "IT"},
	{"rome", "IT"},
	{"milan", "IT"},
	{"united kingdom", "GB"},
	{"london", "GB"},
	{"uk", "GB"},
	{"belgium", "BE"},
	{"brussels", "BE"},
	{"switzerland", "CH"},
	{"geneva", "CH"},
	{"zurich", "CH"},
	{"usa", "US"},
	{"united states", "US"},
	{"new york", "US"},
}

var currencyCountries = map[string]string{
	"GBP": "GB",
	"CHF": "CH",
	"USD": "US",
}

// normalizeCriteria derives the rule lookup key from the ticket.
func normalizeCriteria(info receipt.TicketInfo) RuleCriteria {
	criteria := RuleCriteria{
		Currency:    strings.ToUpper(strings.TrimSpace(info.Currency)),
		ExpenseType: strings.ToUpper(strings.TrimSpace(info.Category)),
	}
	if criteria.Currency == "" {
		criteria.Currency = receipt.DefaultCurrency
	}
	if criteria.ExpenseType == "" {
		criteria.ExpenseType = receipt.DefaultCategory
	}

	haystack := strings.ToLower(info.Location + " " + info.City + " " + info.Vendor + " " + info.RawText)
	for _, cm := range countryMarkers {
		if strings.Contains(haystack, cm.marker) {
			criteria.Country = cm.country
			break
		}
	}
	if criteria.Country == "" {
		if c, ok := currencyCountries[criteria.Currency]; ok {
			criteria.Country = c
		} else if criteria.Currency == "EUR" {
			criteria.Country = "FR"
		}
	}

	return criteria
}

// AnalyzeTicket runs the full compliance check and persists the result.
func (s *AnalyzerService) AnalyzeTicket(ctx context.Context, username string, info receipt.TicketInfo, question string) (dto.AnalysisResult, string, error) {
	criteria := normalizeCriteria(info)
	rules := s.policyService.FindRules(criteria)

	amount, hasAmount := receipt.ToFloat(info.TotalAmount)
	if !hasAmount {
		amount, hasAmount = receipt.ToFloat(info.Amount)
	}

	validation := validateAgainstRules(amount, hasAmount, rules)

	confidence := 0.5
	if len(rules) > 0 {
		confidence += 0.3
	}
	if hasAmount {
		confidence += 0.1
	}
	if info.Currency != "" {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	result := dto.AnalysisResult{
		ExpenseType:     criteria.ExpenseType,
		BasicValidation: validation,
		ConfidenceScore: confidence,
		Recommendations: buildRecommendations(validation, rules, criteria),
		Timestamp:       time.Now().Format(time.RFC3339),
	}

	switch validation.Status {
	case "approved":
		result.Result = "PASS"
	case "pending_review":
		result.Result = "REVIEW"
	default:
		result.Result = "FAIL"
	}

	for _, rule := range rules {
		result.AppliedRules = append(result.AppliedRules, dto.AppliedRule{
			SheetName:   rule.SheetName,
			Country:     rule.Country,
			Currency:    rule.Currency,
			ExpenseType: rule.ExpenseType,
			AmountLimit: rule.AmountLimit,
		})
	}

	result.Justification = s.justify(ctx, info, criteria, result, amount, hasAmount)

	analysisID := uuid.New()
	if s.analysisRepo != nil {
		infoJSON, _ := json.Marshal(info)
		resultJSON, _ := json.Marshal(result)
		record := &models.AnalysisRecord{
			ID:             analysisID,
			Username:       username,
			TicketFilename: info.Filename,
			Question:       question,
			TicketInfo:     infoJSON,
			Result:         resultJSON,
			CreatedAt:      time.Now(),
		}
		if err := s.analysisRepo.Create(ctx, record); err != nil {
			// Persistence failures must not lose the analysis.
			s.logger.Error("Failed to save analysis record", zap.Error(err))
		}
	}

	return result, analysisID.String(), nil
}

func validateAgainstRules(amount float64, hasAmount bool, rules []models.Rule) dto.BasicValidation {
	validation := dto.BasicValidation{
		IsValid:      true,
		Status:       "approved",
		Issues:       []string{},
		WithinLimits: true,
	}

	if !hasAmount {
		validation.Issues = append(validation.Issues, "no amount could be extracted from the ticket")
		validation.Status = "pending_review"
		return validation
	}
	if amount <= 0 {
		validation.Issues = append(validation.Issues, "extracted amount is not positive")
		validation.Status = "pending_review"
		return validation
	}

	if len(rules) == 0 {
		validation.Issues = append(validation.Issues, "no expense rule matches this ticket, manual review required")
		validation.Status = "pending_review"
		return validation
	}

	for _, rule := range rules {
		if rule.AmountLimit > 0 && amount > rule.AmountLimit {
			validation.Issues = append(validation.Issues,
				fmt.Sprintf("amount %.2f exceeds the %.2f %s limit for %s",
					amount, rule.AmountLimit, rule.Currency, rule.ExpenseType))
			validation.WithinLimits = false
		}
	}
	if !validation.WithinLimits {
		validation.IsValid = false
		validation.Status = "error"
	}

	return validation
}

func buildRecommendations(validation dto.BasicValidation, rules []models.Rule, criteria RuleCriteria) []string {
	var recs []string

	if !validation.WithinLimits {
		recs = append(recs, "The amount exceeds the policy limit. Attach a manager approval or split the expense.")
	}
	if len(rules) == 0 {
		recs = append(recs, fmt.Sprintf("No rule covers %s expenses in %s. Submit the ticket for manual review.",
			criteria.ExpenseType, criteria.Country))
	}
	if validation.Status == "pending_review" && len(rules) > 0 {
		recs = append(recs, "Some ticket fields could not be verified automatically. Double-check the extracted values before submitting.")
	}
	if len(recs) == 0 {
		recs = append(recs, "The ticket complies with the expense policy. You can submit it for reimbursement.")
	}
	return recs
}

// justify asks the LLM for a human-readable verdict explanation, degrading to
// a rule-based sentence when the LLM is unavailable.
func (s *AnalyzerService) justify(ctx context.Context, info receipt.TicketInfo, criteria RuleCriteria, result dto.AnalysisResult, amount float64, hasAmount bool) string {
	fallback := fmt.Sprintf("Verdict %s: %s expense, %d matching rule(s), status %s.",
		result.Result, criteria.ExpenseType, len(result.AppliedRules), result.BasicValidation.Status)
	if len(result.BasicValidation.Issues) > 0 {
		fallback += " Issues: " + strings.Join(result.BasicValidation.Issues, "; ")
	}

	if s.llmService == nil {
		return fallback
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s\n", result.Result)
	fmt.Fprintf(&b, "Vendor: %s\n", info.Vendor)
	if hasAmount {
		fmt.Fprintf(&b, "Amount: %.2f %s\n", amount, criteria.Currency)
	}
	fmt.Fprintf(&b, "Expense type: %s, country: %s\n", criteria.ExpenseType, criteria.Country)
	for _, rule := range result.AppliedRules {
		fmt.Fprintf(&b, "Applied rule: %s limit %.2f %s (%s)\n",
			rule.ExpenseType, rule.AmountLimit, rule.Currency, rule.SheetName)
	}
	for _, issue := range result.BasicValidation.Issues {
		fmt.Fprintf(&b, "Issue: %s\n", issue)
	}

	justification, err := s.llmService.Justify(ctx, b.String())
	if err != nil {
		s.logger.Warn("LLM justification failed, using rule-based fallback", zap.Error(err))
		return fallback
	}
	return justification
}

// History returns recent analyses, all users' for admins.
func (s *AnalyzerService) History(ctx context.Context, username string, admin bool, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.analysisRepo.ListForUser(ctx, username, admin, limit)
}

// AnswerQuestion answers a chat message grounded in the loaded documents.
func (s *AnalyzerService) AnswerQuestion(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("empty message")
	}

	var contextParts []string
	if summary := s.policyService.RulesSummary(); summary != "" {
		contextParts = append(contextParts, "Expense rules:\n"+summary)
	}
	if policies := s.policyService.PoliciesText(); policies != "" {
		// Keep the prompt bounded, the workbook carries the hard limits.
		policies = truncateBytes(policies, 4000)
		contextParts = append(contextParts, "Policy excerpt:\n"+policies)
	}

	answer, err := s.llmService.Answer(ctx, message, strings.Join(contextParts, "\n\n"))
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}
	return answer, nil
}
