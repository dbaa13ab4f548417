package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"te-chatbot/internal/api/handlers"
	"te-chatbot/internal/service"
	"te-chatbot/pkg/auth"
	"te-chatbot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func testApp(t *testing.T) (*fiber.App, *auth.JWTManager) {
	t.Helper()

	logger := zap.NewNop()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	authService := service.NewAuthService(nil, jwtManager, logger)
	activityService := service.NewActivityService(nil, logger)
	feedbackService := service.NewFeedbackService(nil, logger)
	policyService := service.NewPolicyService(logger)
	analyzerService := service.NewAnalyzerService(policyService, nil, nil, logger)
	extractService, err := service.NewExtractService(nil, logger)
	if err != nil {
		t.Fatal(err)
	}

	h := Handlers{
		Auth:     handlers.NewAuthHandler(authService, activityService, logger),
		Chat:     handlers.NewChatHandler(analyzerService, activityService, logger),
		Ticket:   handlers.NewTicketHandler(extractService, analyzerService, activityService, 10*1024*1024, logger),
		Document: handlers.NewDocumentHandler(policyService, activityService, 10*1024*1024, logger),
		Feedback: handlers.NewFeedbackHandler(feedbackService, activityService, logger),
		Admin:    handlers.NewAdminHandler(authService, activityService, feedbackService, logger),
	}

	return SetupRouter(h, jwtManager, logger), jwtManager
}

func sessionCookie(t *testing.T, jwtManager *auth.JWTManager, username, role string) *http.Cookie {
	t.Helper()
	token, err := jwtManager.GenerateToken(username, username, role)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: middleware.SessionCookie, Value: token}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/te-status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestStatusWithSession(t *testing.T) {
	app, jwtManager := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/te-status", nil)
	req.AddCookie(sessionCookie(t, jwtManager, "demo", "user"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		DocumentsLoaded bool `json:"documents_loaded"`
		ExcelRulesCount int  `json:"excel_rules_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.DocumentsLoaded {
		t.Error("no documents should be loaded")
	}
}

func TestTicketPreviewRequiresFile(t *testing.T) {
	app, jwtManager := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ticket-preview", nil)
	req.AddCookie(sessionCookie(t, jwtManager, "demo", "user"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Success {
		t.Error("success should be false")
	}
}

func TestAdminRouteForbiddenForUsers(t *testing.T) {
	app, jwtManager := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/logs", nil)
	req.AddCookie(sessionCookie(t, jwtManager, "demo", "user"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestViewRulesNotLoaded(t *testing.T) {
	app, jwtManager := testApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/view-excel-rules", nil)
	req.AddCookie(sessionCookie(t, jwtManager, "admin", "admin"))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
