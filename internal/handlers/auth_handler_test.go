package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refreshTokenRowColumns = []string{
	"id", "user_id", "token_hash", "device_type", "ip_address", "user_agent",
	"created_at", "expires_at", "revoked", "revoked_at",
}

func TestGetProfile_Success(t *testing.T) {
	env := newHandlerEnv(t)
	userID := uuid.New()

	env.mock.ExpectQuery(`SELECT (.+) FROM user_profiles WHERE user_id = \$1`).
		WithArgs(userID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "first_name", "last_name", "phone", "updated_at"}).
			AddRow(userID.String(), "Ada", "Lovelace", "+27821234567", time.Now()))

	c, w := setupAuthenticatedContext(userID, "ada@example.com", "guest")
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/users/me/profile", nil)

	env.auth.GetProfile(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ada@example.com", response["email"])
	assert.NotNil(t, response["profile"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestGetProfile_NoUserContext(t *testing.T) {
	env := newHandlerEnv(t)

	// Create context without user authentication
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/users/me/profile", nil)

	env.auth.GetProfile(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Error)
}

func TestUpdateProfile_NoUserContext(t *testing.T) {
	env := newHandlerEnv(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := bytes.NewBufferString(`{"first_name":"Ada"}`)
	c.Request, _ = http.NewRequest(http.MethodPut, "/api/users/me/profile", body)
	c.Request.Header.Set("Content-Type", "application/json")

	env.auth.UpdateProfile(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile_InvalidRequest(t *testing.T) {
	env := newHandlerEnv(t)

	c, w := setupAuthenticatedContext(uuid.New(), "ada@example.com", "guest")
	c.Request, _ = http.NewRequest(http.MethodPut, "/api/users/me/profile", bytes.NewBufferString(`{invalid json}`))
	c.Request.Header.Set("Content-Type", "application/json")

	env.auth.UpdateProfile(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
}

func TestUpdateProfile_InvalidPhone(t *testing.T) {
	env := newHandlerEnv(t)

	c, w := setupAuthenticatedContext(uuid.New(), "ada@example.com", "guest")
	c.Request, _ = http.NewRequest(http.MethodPut, "/api/users/me/profile",
		bytes.NewBufferString(`{"first_name":"Ada","phone":"12"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	env.auth.UpdateProfile(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRegister_InvalidBody(t *testing.T) {
	env := newHandlerEnv(t)

	w := serve(http.MethodPost, "/api/auth/register", "/api/auth/register",
		map[string]string{"email": "not-an-email", "password": "x"}, env.auth.Register)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decodeError(t, w).Error)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newHandlerEnv(t)
	env.mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := serve(http.MethodPost, "/api/auth/login", "/api/auth/login",
		map[string]string{"email": "ghost@example.com", "password": "whatever123"}, env.auth.Login)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", decodeError(t, w).Message)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRefreshToken_RevokedToken(t *testing.T) {
	env := newHandlerEnv(t)
	userID := uuid.New()
	token, err := env.jwt.GenerateRefreshToken(userID, "ada@example.com")
	require.NoError(t, err)

	env.mock.ExpectQuery(`SELECT (.+) FROM refresh_tokens WHERE token_hash = \$1`).
		WillReturnRows(sqlmock.NewRows(refreshTokenRowColumns).AddRow(
			uuid.NewString(), userID.String(), "hash", nil, nil, nil,
			time.Now(), time.Now().Add(time.Hour), true, time.Now(),
		))

	w := serve(http.MethodPost, "/api/auth/refresh", "/api/auth/refresh",
		map[string]string{"refresh_token": token}, env.auth.Refresh)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Error)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRefreshToken_InvalidToken(t *testing.T) {
	env := newHandlerEnv(t)

	w := serve(http.MethodPost, "/api/auth/refresh", "/api/auth/refresh",
		map[string]string{"refresh_token": "invalid.token.here"}, env.auth.Refresh)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestRefreshToken_MissingToken(t *testing.T) {
	env := newHandlerEnv(t)

	w := serve(http.MethodPost, "/api/auth/refresh", "/api/auth/refresh",
		map[string]string{}, env.auth.Refresh)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "refresh_token is required", decodeError(t, w).Message)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newHandlerEnv(t)
	token, err := env.jwt.GenerateRefreshToken(uuid.New(), "ada@example.com")
	require.NoError(t, err)

	env.mock.ExpectExec(`UPDATE refresh_tokens SET revoked = TRUE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := serve(http.MethodPost, "/api/auth/logout", "/api/auth/logout",
		map[string]string{"refresh_token": token}, env.auth.Logout)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out successfully")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestLogout_UnknownToken(t *testing.T) {
	env := newHandlerEnv(t)

	w := serve(http.MethodPost, "/api/auth/logout", "/api/auth/logout",
		map[string]string{"refresh_token": "garbage"}, env.auth.Logout)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	env := newHandlerEnv(t)
	env.mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w := serve(http.MethodPost, "/api/auth/forgot-password", "/api/auth/forgot-password",
		map[string]string{"email": "ghost@example.com"}, env.auth.ForgotPassword)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "If an account exists")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
