package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lagoonresort/reservation-backend/internal/middleware"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/lagoonresort/reservation-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication and profile HTTP requests
type AuthHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
		logger:       logger,
	}
}

func sessionFrom(c *gin.Context) models.SessionInfo {
	return models.SessionInfo{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	session := sessionFrom(c)
	resp, err := h.authService.Register(c.Request.Context(), req, session)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.safeLogRegister(resp.User.ID, resp.User.Email, session.IPAddress, session.UserAgent)
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	session := sessionFrom(c)
	resp, err := h.authService.Login(c.Request.Context(), req, session)
	if err != nil {
		if services.KindOf(err) == services.KindUnauthorized {
			h.safeLogLogin(nil, req.Email, session.IPAddress, session.UserAgent, false, err.Error())
		}
		respondError(c, h.logger, err)
		return
	}

	h.safeLogLogin(&resp.User.ID, resp.User.Email, session.IPAddress, session.UserAgent, true, "")
	c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}

	session := sessionFrom(c)
	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, session)
	if err != nil {
		if services.KindOf(err) == services.KindUnauthorized {
			h.safeLogTokenRefresh(nil, session.IPAddress, session.UserAgent, false)
		}
		respondError(c, h.logger, err)
		return
	}

	h.safeLogTokenRefresh(&resp.User.ID, session.IPAddress, session.UserAgent, true)
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. It succeeds for unknown tokens too.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}

	userID, err := h.authService.Logout(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if userID != nil {
		session := sessionFrom(c)
		h.safeLogLogout(*userID, session.IPAddress, session.UserAgent)
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response never
// reveals whether the email is registered.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	session := sessionFrom(c)
	h.safeLogPasswordReset(req.Email, "requested", session.IPAddress, session.UserAgent)
	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists for this email, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "token and new_password are required")
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	session := sessionFrom(c)
	h.safeLogPasswordReset("", "completed", session.IPAddress, session.UserAgent)
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// GetProfile handles GET /api/users/me/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":   userCtx.Email,
		"roles":   userCtx.Roles,
		"profile": profile,
	})
}

// UpdateProfile handles PUT /api/users/me/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), userCtx.UserID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}
