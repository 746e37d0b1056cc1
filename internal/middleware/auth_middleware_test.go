package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/lagoonresort/reservation-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(accessExpiry time.Duration) *jwt.Service {
	return jwt.NewService("lagoon-access-secret", "lagoon-refresh-secret", accessExpiry, 24*time.Hour)
}

// bookingRouter mirrors the booking routes: creation is public, desk work
// needs staff, and money-moving or destructive actions need admin.
func bookingRouter(jwtService *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	authRequired := AuthMiddleware(jwtService)
	staffOnly := RequireRole(models.RoleStaff, models.RoleAdmin)
	adminOnly := RequireRole(models.RoleAdmin)

	bookings := router.Group("/api/bookings")
	bookings.POST("", ok)

	staff := bookings.Group("", authRequired, staffOnly)
	staff.GET("", ok)
	staff.POST("/:id/cancel", ok)
	staff.GET("/export", adminOnly, ok)
	staff.DELETE("/:id", adminOnly, ok)
	staff.POST("/:id/refund", adminOnly, ok)

	return router
}

func bearer(t *testing.T, jwtService *jwt.Service, roles ...string) string {
	t.Helper()
	token, err := jwtService.GenerateAccessToken(uuid.New(), "caller@lagoonresort.example", roles)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router *gin.Engine, method, target, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

func TestBookingRoleMatrix(t *testing.T) {
	jwtService := newTestJWT(time.Hour)
	router := bookingRouter(jwtService)

	callers := map[string][]string{
		"anonymous": nil,
		"guest":     {models.RoleGuest},
		"staff":     {models.RoleStaff},
		"admin":     {models.RoleAdmin},
	}

	routes := []struct {
		method, target string
		want           map[string]int
	}{
		{http.MethodPost, "/api/bookings", map[string]int{
			"anonymous": http.StatusOK, "guest": http.StatusOK, "staff": http.StatusOK, "admin": http.StatusOK,
		}},
		{http.MethodGet, "/api/bookings", map[string]int{
			"anonymous": http.StatusUnauthorized, "guest": http.StatusForbidden, "staff": http.StatusOK, "admin": http.StatusOK,
		}},
		{http.MethodPost, "/api/bookings/42/cancel", map[string]int{
			"anonymous": http.StatusUnauthorized, "guest": http.StatusForbidden, "staff": http.StatusOK, "admin": http.StatusOK,
		}},
		{http.MethodGet, "/api/bookings/export", map[string]int{
			"anonymous": http.StatusUnauthorized, "guest": http.StatusForbidden, "staff": http.StatusForbidden, "admin": http.StatusOK,
		}},
		{http.MethodDelete, "/api/bookings/42", map[string]int{
			"anonymous": http.StatusUnauthorized, "guest": http.StatusForbidden, "staff": http.StatusForbidden, "admin": http.StatusOK,
		}},
		{http.MethodPost, "/api/bookings/42/refund", map[string]int{
			"anonymous": http.StatusUnauthorized, "guest": http.StatusForbidden, "staff": http.StatusForbidden, "admin": http.StatusOK,
		}},
	}

	for _, route := range routes {
		for caller, roles := range callers {
			t.Run(caller+" "+route.method+" "+route.target, func(t *testing.T) {
				authorization := ""
				if roles != nil {
					authorization = bearer(t, jwtService, roles...)
				}

				w := doRequest(router, route.method, route.target, authorization)

				assert.Equal(t, route.want[caller], w.Code)
				if w.Code == http.StatusForbidden {
					assert.Equal(t, "INSUFFICIENT_PERMISSIONS", errorCode(t, w))
				}
			})
		}
	}
}

func TestAuthMiddleware_RejectedCredentials(t *testing.T) {
	jwtService := newTestJWT(time.Hour)
	router := bookingRouter(jwtService)

	expired, err := newTestJWT(-time.Minute).GenerateAccessToken(uuid.New(), "desk@lagoonresort.example", []string{models.RoleStaff})
	require.NoError(t, err)
	refresh, err := jwtService.GenerateRefreshToken(uuid.New(), "desk@lagoonresort.example")
	require.NoError(t, err)
	foreign, err := jwt.NewService("other-secret", "other-refresh", time.Hour, time.Hour).
		GenerateAccessToken(uuid.New(), "desk@lagoonresort.example", []string{models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		wantCode      string
	}{
		{"Missing Header", "", "MISSING_AUTH_HEADER"},
		{"Basic Scheme", "Basic ZGVzazpwYXNz", "INVALID_AUTH_FORMAT"},
		{"Empty Bearer", "Bearer   ", "INVALID_AUTH_FORMAT"},
		{"Garbage Token", "Bearer not.a.jwt", "INVALID_TOKEN"},
		{"Expired Token", "Bearer " + expired, "TOKEN_EXPIRED"},
		{"Refresh Token As Access", "Bearer " + refresh, "INVALID_TOKEN"},
		{"Signed By Another Service", "Bearer " + foreign, "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/bookings", tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestAuthMiddleware_StoresCaller(t *testing.T) {
	jwtService := newTestJWT(time.Hour)
	userID := uuid.New()
	token, err := jwtService.GenerateAccessToken(userID, "desk@lagoonresort.example", []string{models.RoleStaff})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	var got UserContext
	router.GET("/api/users/me/profile", AuthMiddleware(jwtService), func(c *gin.Context) {
		got = MustGetUserContext(c)
		c.Status(http.StatusOK)
	})

	w := doRequest(router, http.MethodGet, "/api/users/me/profile", "Bearer "+token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "desk@lagoonresort.example", got.Email)
	assert.True(t, got.HasRole(models.RoleStaff))
	assert.False(t, got.HasRole(models.RoleAdmin))
}

func TestRequireRole_WithoutAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.DELETE("/api/rooms/:id", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := doRequest(router, http.MethodDelete, "/api/rooms/7", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_USER_CONTEXT", errorCode(t, w))
}

func TestGetUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("Absent", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, ok := GetUserContext(c)
		assert.False(t, ok)
		assert.Panics(t, func() { MustGetUserContext(c) })
	})

	t.Run("Wrong Type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(UserContextKey, "admin")
		_, ok := GetUserContext(c)
		assert.False(t, ok)
	})
}
