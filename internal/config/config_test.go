package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-portal", cfg.App.Name)
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "noreply@example.com", cfg.Mail.From)
	assert.Equal(t, 7, cfg.Scheduler.OverdueAfterDays)
	assert.Equal(t, time.Duration(0), cfg.Chatbot.HistoryTTL())
	assert.Equal(t, 30*time.Second, cfg.Chatbot.Timeout())
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CHATBOT_HISTORY_TTL_MINUTES", "90")
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("MAIL_FROM", "support@acme.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, cfg.Chatbot.HistoryTTL())
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, "support@acme.test", cfg.Mail.From)
}

func TestValidateRejectsUnknownTLSMode(t *testing.T) {
	cfg := &Config{
		App:  AppConfig{Env: "test"},
		Mail: MailConfig{TLSMode: "ssl3"},
	}
	require.Error(t, cfg.Validate())
}

func TestAppAddr(t *testing.T) {
	a := AppConfig{Host: "127.0.0.1", Port: "9000", RequestTimeoutSeconds: 5}
	assert.Equal(t, "127.0.0.1:9000", a.Addr())
	assert.Equal(t, 5*time.Second, a.RequestTimeout())
}
