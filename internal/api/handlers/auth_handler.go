package handlers

import (
	"errors"
	"time"

	"te-chatbot/internal/dto"
	"te-chatbot/internal/models"
	"te-chatbot/internal/service"
	"te-chatbot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService     *service.AuthService
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, activityService *service.ActivityService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		activityService: activityService,
		logger:          logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Verify credentials and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Username and password are required")
	}

	token, user, err := h.authService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return errorJSON(c, fiber.StatusUnauthorized, "Invalid username or password")
		}
		h.logger.Error("Login failed", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Login failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(h.authService.SessionDuration()),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	h.activityService.Log(c.Context(), user.Username, models.ActionLogin, "")

	return c.JSON(dto.LoginResponse{
		Success:  true,
		Message:  "Welcome, " + user.FullName,
		Redirect: "/",
	})
}

// Logout godoc
// @Summary Log out
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} dto.LogoutResponse
// @Router /api/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if username := currentUsername(c); username != "" {
		h.activityService.Log(c.Context(), username, models.ActionLogout, "")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(dto.LogoutResponse{
		Success:  true,
		Redirect: "/login",
	})
}
