package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSettings map[string]string

func (m mapSettings) Get(name string) string { return m[name] }

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PRIVATE_KEY", "0x01")
	t.Setenv("DISCORD_BOT_TOKEN", "bot-token")
	t.Setenv("DISCORD_GUILD_ID", "123")
	t.Setenv("TWITTER_BEARER_TOKEN", "bearer")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, "https://api.twitter.com", cfg.TwitterAPIURL)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 10*time.Second, cfg.VerifierTimeout)
	assert.True(t, cfg.DiscordMemberSearch)
	assert.False(t, cfg.Production())
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("VERIFIER_TIMEOUT", "3s")
	t.Setenv("DISCORD_MEMBER_SEARCH", "false")
	t.Setenv("TWITTER_API_URL", "http://twitter.local/")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.Production())
	assert.Equal(t, 3*time.Second, cfg.VerifierTimeout)
	assert.False(t, cfg.DiscordMemberSearch)
	assert.Equal(t, "http://twitter.local", cfg.TwitterAPIURL)
}

func TestLoadSettingsWinOverEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("FRONTEND_URL", "https://env.example")

	cfg, err := Load(mapSettings{"frontend_url": "https://db.example", "rate_limit_requests": "5"})
	require.NoError(t, err)
	assert.Equal(t, "https://db.example", cfg.FrontendURL)
	assert.Equal(t, 5, cfg.RateLimitRequests)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("PRIVATE_KEY", "")

	_, err := Load(nil)
	require.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "PRIVATE_KEY")
}

func TestLoadRejectsBadOrigin(t *testing.T) {
	setRequired(t)
	t.Setenv("FRONTEND_URL", "mint.example")

	_, err := Load(nil)
	assert.ErrorContains(t, err, "frontend url")
}

func TestSigningKeyAndDSN(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "0xabc")
	t.Setenv("MYSQL_DSN", "user:pw@tcp(db:3306)/attest")
	assert.Equal(t, "0xabc", SigningKey())
	assert.Equal(t, "user:pw@tcp(db:3306)/attest", MySQLDSN())
}

func TestLoadTLSPair(t *testing.T) {
	setRequired(t)
	t.Setenv("TLS_CERT_FILE", "/etc/attestd/tls.crt")

	_, err := Load(nil)
	assert.ErrorContains(t, err, "tls cert and key")

	t.Setenv("TLS_KEY_FILE", "/etc/attestd/tls.key")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.True(t, cfg.TLSEnabled())
}

func TestLoadRejectsUnitlessDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("VERIFIER_TIMEOUT", "10")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "verifier timeout")

	t.Setenv("VERIFIER_TIMEOUT", "10s")
	t.Setenv("RATE_LIMIT_WINDOW", "900")
	_, err = Load(nil)
	assert.ErrorContains(t, err, "rate limit window")

	t.Setenv("RATE_LIMIT_WINDOW", "900s")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
}
