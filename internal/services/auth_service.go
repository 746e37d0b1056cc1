package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lagoonresort/reservation-backend/internal/database"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/internal/utils"
	"github.com/lagoonresort/reservation-backend/pkg/jwt"
	"github.com/lagoonresort/reservation-backend/pkg/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// resetTokenBytes is the entropy of an emailed password reset token
const resetTokenBytes = 32

// AuthService handles account registration, sessions and password resets
type AuthService struct {
	userRepo         *database.UserRepository
	refreshTokenRepo *database.RefreshTokenRepository
	resetRepo        *database.PasswordResetRepository
	jwtService       *jwt.Service
	notifier         *NotificationService
	phoneValidator   *validator.PhoneValidator
	bcryptCost       int
	resetTTL         time.Duration
	logger           *logrus.Logger
}

// AuthServiceDeps groups the collaborators of AuthService
type AuthServiceDeps struct {
	UserRepo         *database.UserRepository
	RefreshTokenRepo *database.RefreshTokenRepository
	ResetRepo        *database.PasswordResetRepository
	JWT              *jwt.Service
	Notifier         *NotificationService
	PhoneValidator   *validator.PhoneValidator
	BcryptCost       int
	ResetTTL         time.Duration
	Logger           *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(deps AuthServiceDeps) *AuthService {
	cost := deps.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:         deps.UserRepo,
		refreshTokenRepo: deps.RefreshTokenRepo,
		resetRepo:        deps.ResetRepo,
		jwtService:       deps.JWT,
		notifier:         deps.Notifier,
		phoneValidator:   deps.PhoneValidator,
		bcryptCost:       cost,
		resetTTL:         deps.ResetTTL,
		logger:           deps.Logger,
	}
}

// Register creates a guest account and signs it in
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, session models.SessionInfo) (*models.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, ValidationError("%s", err.Error())
	}

	existing, err := s.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		return nil, InternalError("failed to look up user", err)
	}
	if existing != nil {
		return nil, ConflictError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, InternalError("failed to hash password", err)
	}

	user, err := s.userRepo.CreateUser(req.Email, string(hash), models.RoleGuest)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ConflictError("an account with this email already exists")
		}
		return nil, InternalError("failed to create user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return s.issueSession(user, session)
}

// Login verifies credentials and issues an access/refresh token pair
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, session models.SessionInfo) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, InternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, UnauthorizedError("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Login failed: wrong password")
		return nil, UnauthorizedError("invalid email or password")
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	return s.issueSession(user, session)
}

// Refresh rotates a refresh token: the presented token is revoked and a new pair issued
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, session models.SessionInfo) (*models.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, UnauthorizedError("invalid refresh token")
	}

	active, err := s.refreshTokenRepo.IsTokenActive(refreshToken)
	if err != nil {
		return nil, InternalError("failed to check refresh token", err)
	}
	if !active {
		return nil, UnauthorizedError("refresh token has been revoked or has expired")
	}

	user, err := s.userRepo.GetUserByID(claims.UserID)
	if err != nil {
		return nil, InternalError("failed to look up user", err)
	}
	if user == nil {
		return nil, UnauthorizedError("user no longer exists")
	}

	if err := s.refreshTokenRepo.RevokeToken(refreshToken); err != nil {
		// Lost a race with a concurrent refresh or logout of the same token
		return nil, UnauthorizedError("refresh token has been revoked or has expired")
	}

	return s.issueSession(user, session)
}

// Logout revokes a refresh token. Unknown or already revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (*uuid.UUID, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil
	}

	if err := s.refreshTokenRepo.RevokeToken(refreshToken); err != nil {
		s.logger.WithField("user_id", claims.UserID).Debug("Logout of inactive refresh token")
		return &claims.UserID, nil
	}

	s.logger.WithField("user_id", claims.UserID).Info("User logged out")
	return &claims.UserID, nil
}

// ForgotPassword emails a one-time reset link. It never reveals whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		s.logger.WithError(err).Error("Failed to look up user for password reset")
		return nil
	}
	if user == nil {
		s.logger.WithField("email", email).Debug("Password reset for unknown email")
		return nil
	}

	token, err := utils.GenerateSecret(resetTokenBytes)
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate password reset token")
		return nil
	}

	if err := s.resetRepo.Create(user.ID, token, time.Now().Add(s.resetTTL)); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to store password reset")
		return nil
	}

	s.notifier.PasswordReset(ctx, user.Email, token)

	s.logger.WithField("user_id", user.ID).Info("Password reset requested")
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs out every session
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := models.ValidatePassword(req.NewPassword); err != nil {
		return ValidationError("%s", err.Error())
	}

	reset, err := s.resetRepo.Consume(req.Token)
	if err != nil {
		return InternalError("failed to check reset token", err)
	}
	if reset == nil {
		return ValidationError("reset token is invalid or has expired")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return InternalError("failed to hash password", err)
	}

	if err := s.userRepo.UpdatePassword(reset.UserID, string(hash)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundError("user", reset.UserID)
		}
		return InternalError("failed to update password", err)
	}

	if err := s.refreshTokenRepo.RevokeAllUserTokens(reset.UserID); err != nil {
		s.logger.WithError(err).WithField("user_id", reset.UserID).Warn("Failed to revoke sessions after password reset")
	}

	s.logger.WithField("user_id", reset.UserID).Info("Password reset completed")
	return nil
}

// GetProfile returns the profile of a signed-in user
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetProfile(userID)
	if err != nil {
		return nil, InternalError("failed to get profile", err)
	}
	return profile, nil
}

// UpdateProfile replaces the profile of a signed-in user
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if len(firstName) > 100 || len(lastName) > 100 {
		return nil, ValidationError("names must be at most 100 characters")
	}

	phone := ""
	if strings.TrimSpace(req.Phone) != "" {
		normalized, err := s.phoneValidator.Validate(req.Phone)
		if err != nil {
			return nil, ValidationError("%s", err.Error())
		}
		phone = normalized
	}

	profile := &models.UserProfile{
		UserID:    userID,
		FirstName: models.NewNullString(firstName),
		LastName:  models.NewNullString(lastName),
		Phone:     models.NewNullString(phone),
	}

	if err := s.userRepo.UpsertProfile(profile); err != nil {
		if errors.Is(err, database.ErrReferenced) {
			return nil, NotFoundError("user", userID)
		}
		return nil, fromRepository("profile", "update", err)
	}

	s.logger.WithField("user_id", userID).Info("Profile updated")
	return profile, nil
}

func (s *AuthService) issueSession(user *models.User, session models.SessionInfo) (*models.LoginResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, InternalError("failed to generate access token", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, InternalError("failed to generate refresh token", err)
	}

	device := utils.ParseUserAgent(session.UserAgent)
	expiresAt := time.Now().Add(s.jwtService.RefreshTokenExpiry())
	if err := s.refreshTokenRepo.StoreRefreshToken(
		user.ID,
		refreshToken,
		device.DeviceType,
		session.IPAddress,
		session.UserAgent,
		expiresAt,
	); err != nil {
		return nil, InternalError("failed to store refresh token", err)
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		User:         user,
	}, nil
}
