package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/middleware"
	"github.com/pfolio/portfolio-api/internal/model"
	"github.com/pfolio/portfolio-api/internal/service"
)

// AuthHandler serves the sign-in, token check, password change, seed and
// sign-out endpoints.
type AuthHandler struct {
	Auth        *service.AuthService
	Log         logging.Logger
	SeedEnabled bool
}

func NewAuthHandler(auth *service.AuthService, log logging.Logger, seedEnabled bool) *AuthHandler {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthHandler{Auth: auth, Log: log, SeedEnabled: seedEnabled}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyReq struct {
	Token string `json:"token"`
}

type changePasswordReq struct {
	UserID          string `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type loginResp struct {
	Success   bool           `json:"success"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      model.Identity `json:"user"`
}

// Login: POST /v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, loginResp{Success: true, Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Invalid email or password"})
	default:
		h.Log.Error(ctx, "login failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "Internal server error"})
	}
}

// Verify: POST /v1/auth/verify. The token comes from the body, or from the
// bearer header when the body has none.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	_ = c.Bind(&req)
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Auth.Verify(ctx, token)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "user": id})
	case errors.Is(err, service.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expired"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	default:
		h.Log.Error(ctx, "token verification failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

// ChangePassword: POST /v1/auth/change-password. When the request carries a
// session token, it may only change the password of the token's subject.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId, currentPassword and newPassword are required"})
	}
	if id, ok := middleware.CurrentIdentity(c); ok && id.ID != req.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Cannot change another user's password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.ChangePassword(ctx, req.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password updated successfully"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Current password is incorrect"})
	case errors.Is(err, service.ErrPasswordTooWeak):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 8 characters"})
	case errors.Is(err, service.ErrPasswordTooLong):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at most 72 bytes"})
	default:
		h.Log.Error(ctx, "password change failed", "user_id", req.UserID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update password"})
	}
}

// Seed: POST /v1/auth/seed
func (h *AuthHandler) Seed(c echo.Context) error {
	if !h.SeedEnabled {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Seed(ctx)
	if err != nil {
		h.Log.Error(ctx, "seed failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error":   "Seed process failed",
			"details": "the admin user could not be provisioned",
		})
	}
	if res.AlreadyExists {
		return c.JSON(http.StatusOK, echo.Map{
			"success":       true,
			"alreadyExists": true,
			"message":       "Admin user already exists",
			"user":          res.User,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success":           true,
		"created":           true,
		"message":           "Admin user created successfully",
		"user":              res.User,
		"temporaryPassword": res.TemporaryPassword,
	})
}

// Logout: POST /v1/auth/logout. Signing out twice, or with an expired
// token, still succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := middleware.BearerToken(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Auth.Logout(ctx, token)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	default:
		h.Log.Error(ctx, "logout failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

// Me: GET /v1/me
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id.ID, "email": id.Email, "role": id.Role})
}
