package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lagoonresort/reservation-backend/internal/middleware"
	"github.com/lagoonresort/reservation-backend/internal/services"
	"github.com/lagoonresort/reservation-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// logAuditError is a helper to log audit service errors without failing the request
func logAuditError(logger *logrus.Logger, operation string, err error) {
	if err != nil {
		logger.WithError(err).WithField("operation", operation).Error("Audit log write failed")
	}
}

// Auditor records staff and admin changes made through the API
type Auditor struct {
	service *services.AuditService
	logger  *logrus.Logger
}

// NewAuditor creates a new Auditor
func NewAuditor(service *services.AuditService, logger *logrus.Logger) *Auditor {
	return &Auditor{service: service, logger: logger}
}

// adminAction logs a change by the authenticated caller. Anonymous requests are skipped.
func (a *Auditor) adminAction(c *gin.Context, action, entityType string, entityID interface{}, details map[string]interface{}) {
	if a == nil {
		return
	}
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		return
	}
	err := a.service.LogAdminAction(
		userCtx.UserID,
		action,
		entityType,
		fmt.Sprint(entityID),
		utils.GetRealIP(c),
		utils.GetUserAgent(c),
		details,
	)
	logAuditError(a.logger, action, err)
}

// RateLimited logs a throttled request. It fits middleware.RateLimit's callback.
func (a *Auditor) RateLimited(c *gin.Context, retryAfter time.Time) {
	err := a.service.LogRateLimitViolation(utils.GetRealIP(c), utils.GetUserAgent(c), c.FullPath(), retryAfter)
	logAuditError(a.logger, "LogRateLimitViolation", err)
}

// Helper functions to log auth events with error handling

func (h *AuthHandler) safeLogRegister(userID uuid.UUID, email, ipAddress, userAgent string) {
	if err := h.auditService.LogRegister(userID, email, ipAddress, userAgent); err != nil {
		logAuditError(h.logger, "LogRegister", err)
	}
}

func (h *AuthHandler) safeLogLogin(userID *uuid.UUID, email, ipAddress, userAgent string, success bool, reason string) {
	if err := h.auditService.LogLogin(userID, email, ipAddress, userAgent, success, reason); err != nil {
		logAuditError(h.logger, "LogLogin", err)
	}
}

func (h *AuthHandler) safeLogLogout(userID uuid.UUID, ipAddress, userAgent string) {
	if err := h.auditService.LogLogout(userID, ipAddress, userAgent); err != nil {
		logAuditError(h.logger, "LogLogout", err)
	}
}

func (h *AuthHandler) safeLogTokenRefresh(userID *uuid.UUID, ipAddress, userAgent string, success bool) {
	if err := h.auditService.LogTokenRefresh(userID, ipAddress, userAgent, success); err != nil {
		logAuditError(h.logger, "LogTokenRefresh", err)
	}
}

func (h *AuthHandler) safeLogPasswordReset(email, stage, ipAddress, userAgent string) {
	if err := h.auditService.LogPasswordReset(email, stage, ipAddress, userAgent); err != nil {
		logAuditError(h.logger, "LogPasswordReset", err)
	}
}
