package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lagoon?sslmode=disable")
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("PAYFAST_MERCHANT_ID", "10000100")
	t.Setenv("PAYFAST_MERCHANT_KEY", "46f0cd694581a")
	t.Setenv("PAYFAST_NOTIFY_URL", "https://api.lagoonresort.example/api/payment/notify")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenExpiry)
	assert.Equal(t, "zar", cfg.Stripe.Currency)
	assert.Equal(t, 10*time.Minute, cfg.Redis.RoomTTL)
	assert.Equal(t, 30*time.Minute, cfg.Security.PasswordResetTTL)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 180*24*time.Hour, cfg.Scheduler.AuditRetention)
	assert.Equal(t, 10*time.Second, cfg.SMTP.Timeout)
	assert.Equal(t, "https://sandbox.payfast.co.za/eng/process", cfg.PayFast.ProcessURL())
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STRIPE_CURRENCY", "USD")
	t.Setenv("PAYFAST_SANDBOX", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://lagoonresort.example, ,https://admin.lagoonresort.example")
	t.Setenv("AUTH_RATE_PER_MINUTE", "not-a-number")
	t.Setenv("ENABLE_SCHEDULER", "false")
	t.Setenv("SMTP_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, "https://www.payfast.co.za/eng/process", cfg.PayFast.ProcessURL())
	assert.Equal(t, []string{"https://lagoonresort.example", "https://admin.lagoonresort.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 20, cfg.Security.AuthRatePerMinute)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 3*time.Second, cfg.SMTP.Timeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		env     map[string]string
		wantErr string
	}{
		{name: "Missing Database", unset: "DATABASE_URL", wantErr: "DATABASE_URL is required"},
		{name: "Missing JWT Secret", unset: "JWT_SECRET", wantErr: "JWT_SECRET is required"},
		{name: "Missing Notify URL", unset: "PAYFAST_NOTIFY_URL", wantErr: "PAYFAST_NOTIFY_URL is required"},
		{name: "Bad SMS Mode", env: map[string]string{"SMS_MODE": "loud"}, wantErr: "invalid SMS mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			if tt.unset != "" {
				t.Setenv(tt.unset, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("PayFast Disabled Needs No Merchant", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PAYFAST_ENABLED", "false")
		t.Setenv("PAYFAST_MERCHANT_ID", "")

		_, err := Load()
		assert.NoError(t, err)
	})
}
