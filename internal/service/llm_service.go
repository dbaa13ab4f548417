package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"te-chatbot/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LLMService struct {
	client      *gigago.Client
	model       *gigago.GenerativeModel
	config      *config.GigaChatConfig
	logger      *zap.Logger
	httpClient *http.Client
	baseURL    string

	mu          sync.Mutex
	accessToken string
}

// token returns the current REST access token. Handlers run concurrently and
// the token is refreshed on 401, so every access goes through the mutex.
func (s *LLMService) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *LLMService) setToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// buildSystemInstruction is the assistant persona shared by the chat and
// analysis prompts.
func buildSystemInstruction() string {
	return `You are a Travel & Expense (T&E) policy assistant for company employees.

# YOUR ROLE

1. Answer questions about travel and expense policies, reimbursement limits and
   approval workflows, grounded in the loaded policy documents.
2. Analyze expense receipts (restaurant bills, hotel invoices, taxi receipts,
   fuel tickets) against the expense rules and decide whether they comply.
3. Extract structured information from receipt text with maximum accuracy.

# PRINCIPLES

- Accuracy first: amounts, dates and currencies must match the source document
  exactly. Never invent values that are not present.
- When asked for JSON, return ONLY valid JSON with no markdown fences and no
  commentary before or after.
- Ground every compliance decision in the specific rule that applies (country,
  currency, expense type, amount limit). Quote the limit when one exists.
- Be concise and professional. Answer in the language of the user's question.

# EXPENSE CATEGORIES

- MEALS: restaurants, cafes, catering
- ACCOMMODATION: hotels, lodging
- TRANSPORT: taxi, train, flight, fuel, parking
- SUPPLIES: office supplies, equipment
- GENERAL: anything else

# WHEN INFORMATION IS MISSING

- If the policy documents do not cover a question, say so rather than guessing.
- If a receipt lacks a field, omit it from the JSON instead of fabricating it.`
}

func NewLLMService(cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = buildSystemInstruction()
	model.Temperature = 0.3

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	// Token for the Files and Vision endpoints, which gigago does not cover.
	accessToken, err := getAccessToken(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &LLMService{
		client:      client,
		model:       model,
		config:      cfg,
		logger:      logger,
		httpClient:  httpClient,
		accessToken: accessToken,
		baseURL:     "https://gigachat.devices.sberbank.ru/api/v1",
	}, nil
}

// getAccessToken obtains an OAuth token for direct GigaChat REST calls.
// The API key is already Base64-encoded per the GigaChat documentation.
func getAccessToken(ctx context.Context, cfg *config.GigaChatConfig, httpClient *http.Client, logger *zap.Logger) (string, error) {
	oauthURL := "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"

	rqUID := uuid.New().String()

	formData := url.Values{}
	formData.Set("scope", cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, "POST", oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	req.Header.Set("Authorization", "Basic "+cfg.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	logger.Info("Access token obtained", zap.Int("expires_in", oauthResp.ExpiresIn))
	return oauthResp.AccessToken, nil
}

// Answer generates a chat reply grounded in the loaded policy context.
func (s *LLMService) Answer(ctx context.Context, question, policyContext string) (string, error) {
	prompt := question
	if policyContext != "" {
		prompt = fmt.Sprintf(`Policy context currently loaded:
%s

Employee question:
%s

Answer using the policy context above. If the context does not cover the
question, say that the relevant policy is not loaded.`, policyContext, question)
	}

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ExtractTicketJSON asks the model for a structured ticket object and returns
// the raw JSON object found in the reply. The caller validates it.
func (s *LLMService) ExtractTicketJSON(ctx context.Context, ticketText string) ([]byte, error) {
	ticketText = strings.TrimSpace(ticketText)
	if len(ticketText) < 10 {
		return nil, fmt.Errorf("ticket text too short for extraction")
	}

	prompt := fmt.Sprintf(`Extract structured information from this expense receipt text.

Receipt text:
%s

Return ONLY a valid JSON object in this exact format (omit fields that are not
present in the receipt, never invent values):
{
  "vendor": "merchant name",
  "location": "city or address",
  "date": "date as printed",
  "currency": "EUR|USD|GBP|... ISO 4217 code",
  "amount": number,
  "total_amount": number (total including tax),
  "vat_rate": number (percent),
  "payment_method": "payment method as printed",
  "category": "MEALS|ACCOMMODATION|TRANSPORT|SUPPLIES|GENERAL",
  "ticket_number": "receipt number",
  "merchant_id": "SIRET, VAT number or similar",
  "items": [{"label": "line item", "qty": number, "unit_price": number}]
}

RULES:
- Return ONLY the JSON object, no markdown fences, no commentary.
- Amounts are plain numbers with a dot decimal separator.
- If the text contains no receipt information, return {}.`, ticketText)

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from LLM")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("invalid extraction response format: %s", content)
	}

	return []byte(content[jsonStart : jsonEnd+1]), nil
}

// Justify generates the human-readable justification for an analysis verdict.
func (s *LLMService) Justify(ctx context.Context, analysisContext string) (string, error) {
	prompt := fmt.Sprintf(`An expense receipt was checked against the company T&E rules.

%s

Write a short justification (2-4 sentences) for this verdict, addressed to the
employee who submitted the receipt. Reference the applicable limit when one
exists. Do not repeat the raw data, explain the decision.`, analysisContext)

	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate justification: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// UploadFile uploads a file to GigaChat and returns the file ID.
// Endpoint: POST /files
func (s *LLMService) UploadFile(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" purpose makes the file usable in Vision generation requests.
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		switch ext {
		case ".pdf":
			mimeType = "application/pdf"
		case ".jpg", ".jpeg":
			mimeType = "image/jpeg"
		case ".png":
			mimeType = "image/png"
		default:
			mimeType = "application/octet-stream"
		}
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, fileReader); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("file too large (413): %s", string(bodyBytes))
	}

	if resp.StatusCode == http.StatusUnauthorized {
		bodyBytes, _ := io.ReadAll(resp.Body)
		// Token may have expired. Refresh it and ask the caller to retry,
		// the multipart body reader is already consumed.
		accessToken, err := getAccessToken(ctx, s.config, s.httpClient, s.logger)
		if err != nil {
			return "", fmt.Errorf("upload failed with 401, token refresh also failed: %w (original error: %s)", err, string(bodyBytes))
		}
		s.setToken(accessToken)
		return "", fmt.Errorf("token expired, please retry the operation (original error: %s)", string(bodyBytes))
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	s.logger.Info("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

// ExtractTextFromImage uses the GigaChat Vision API to read a receipt image.
func (s *LLMService) ExtractTextFromImage(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileID, err := s.UploadFile(ctx, file, filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	prompt := `Extract every piece of text from this expense receipt image
(restaurant bill, hotel invoice, taxi receipt, fuel ticket).
Return only the text visible on the image, preserving line breaks, with no
commentary. If the text is unreadable, return an empty string.`

	return s.extractTextViaVisionAPI(ctx, fileID, prompt)
}

// extractTextViaVisionAPI calls POST /chat/completions with a file attachment.
// Attachments format per the GigaChat API: [["file_id"]].
func (s *LLMService) extractTextViaVisionAPI(ctx context.Context, fileID, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     prompt,
				"attachments": [][]string{{fileID}},
			},
		},
		"temperature": 0.3,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)

	// The model sometimes replies with a refusal instead of extracted text.
	textLower := strings.ToLower(text)
	errorPhrases := []string{
		"cannot help",
		"cannot process",
		"please provide",
		"unable to extract",
		"i'm sorry",
	}
	for _, phrase := range errorPhrases {
		if strings.Contains(textLower, phrase) {
			s.logger.Warn("Vision returned a refusal instead of extracted text",
				zap.String("message", text),
			)
			return "", fmt.Errorf("model returned error message: %s", text)
		}
	}

	s.logger.Info("Text extracted via GigaChat Vision",
		zap.String("file_id", fileID),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
