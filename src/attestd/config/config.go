package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingSetting = errors.New("missing required setting")

// A bare number such as VERIFIER_TIMEOUT=10 parses as nanoseconds; these floors reject it.
const (
	minVerifierTimeout = time.Millisecond
	minRateLimitWindow = time.Second
)

// Settings is an optional store consulted before the environment (see data.LoadSettings).
type Settings interface {
	Get(name string) string
}

type Config struct {
	PrivateKey          string
	DiscordToken        string
	DiscordGuildID      string
	DiscordMemberSearch bool
	TwitterBearerToken  string
	TwitterAPIURL       string
	FrontendURL         string
	Port                string
	Environment         string
	RedisURL            string
	MySQLDSN            string
	RateLimitRequests   int
	RateLimitWindow     time.Duration
	VerifierTimeout     time.Duration
	LogLevel            string
	LogFormat           string
	LogFile             string
	TLSCertFile         string
	TLSKeyFile          string
}

func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Production reports whether diagnostic detail must be withheld from clients.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// environment is read from NODE_ENV; every other key maps to its upper-cased env name.
var envNames = map[string]string{
	"environment": "NODE_ENV",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("discord_member_search", true)
	v.SetDefault("twitter_api_url", "https://api.twitter.com")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("port", "3001")
	v.SetDefault("environment", "development")
	v.SetDefault("rate_limit_requests", 100)
	v.SetDefault("rate_limit_window", 15*time.Minute)
	v.SetDefault("verifier_timeout", 10*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	for key, env := range envNames {
		_ = v.BindEnv(key, env)
	}
	v.AutomaticEnv()
	return v
}

// Load resolves every key from settings first, then the environment, then defaults.
// settings may be nil.
func Load(settings Settings) (Config, error) {
	v := newViper()
	if settings != nil {
		for _, key := range []string{
			"private_key", "discord_bot_token", "discord_guild_id", "discord_member_search",
			"twitter_bearer_token", "twitter_api_url", "frontend_url", "port", "environment",
			"redis_url", "rate_limit_requests", "rate_limit_window", "verifier_timeout",
			"log_level", "log_format", "log_file", "tls_cert_file", "tls_key_file",
		} {
			if val := settings.Get(key); val != "" {
				v.Set(key, val)
			}
		}
	}

	cfg := Config{
		PrivateKey:          v.GetString("private_key"),
		DiscordToken:        v.GetString("discord_bot_token"),
		DiscordGuildID:      v.GetString("discord_guild_id"),
		DiscordMemberSearch: v.GetBool("discord_member_search"),
		TwitterBearerToken:  v.GetString("twitter_bearer_token"),
		TwitterAPIURL:       strings.TrimRight(v.GetString("twitter_api_url"), "/"),
		FrontendURL:         v.GetString("frontend_url"),
		Port:                v.GetString("port"),
		Environment:         v.GetString("environment"),
		RedisURL:            v.GetString("redis_url"),
		MySQLDSN:            v.GetString("mysql_dsn"),
		RateLimitRequests:   v.GetInt("rate_limit_requests"),
		RateLimitWindow:     v.GetDuration("rate_limit_window"),
		VerifierTimeout:     v.GetDuration("verifier_timeout"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
		LogFile:             v.GetString("log_file"),
		TLSCertFile:         v.GetString("tls_cert_file"),
		TLSKeyFile:          v.GetString("tls_key_file"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SigningKey reads only the private key, for tooling that must not need the rest of the config.
func SigningKey() string {
	return newViper().GetString("private_key")
}

// MySQLDSN is read before any settings store exists, so it only comes from the environment.
func MySQLDSN() string {
	return newViper().GetString("mysql_dsn")
}

func (c Config) Validate() error {
	required := []struct{ name, val string }{
		{"PRIVATE_KEY", c.PrivateKey},
		{"DISCORD_BOT_TOKEN", c.DiscordToken},
		{"DISCORD_GUILD_ID", c.DiscordGuildID},
		{"TWITTER_BEARER_TOKEN", c.TwitterBearerToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, r.name)
		}
	}
	if !strings.HasPrefix(c.FrontendURL, "http://") && !strings.HasPrefix(c.FrontendURL, "https://") {
		return fmt.Errorf("frontend url must be an http(s) origin, got %q", c.FrontendURL)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("tls cert and key files must be set together")
	}
	if c.VerifierTimeout < minVerifierTimeout {
		return fmt.Errorf("verifier timeout must be at least %s with a unit (e.g. 10s), got %s", minVerifierTimeout, c.VerifierTimeout)
	}
	if c.RateLimitWindow < minRateLimitWindow {
		return fmt.Errorf("rate limit window must be at least %s with a unit (e.g. 15m), got %s", minRateLimitWindow, c.RateLimitWindow)
	}
	return nil
}
