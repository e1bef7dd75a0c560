package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/stake-plus/allowlist-attest/src/attestd/attest"
	"github.com/stake-plus/allowlist-attest/src/attestd/config"
	"github.com/stake-plus/allowlist-attest/src/attestd/data"
	"github.com/stake-plus/allowlist-attest/src/attestd/signer"
	"github.com/stake-plus/allowlist-attest/src/attestd/webserver"
	"github.com/stake-plus/allowlist-attest/src/discord"
	"github.com/stake-plus/allowlist-attest/src/logging"
	"github.com/stake-plus/allowlist-attest/src/twitter"
	"github.com/stake-plus/allowlist-attest/src/webclient"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the verification API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

// loadConfig reads the optional settings table first so it can override the environment.
func loadConfig() (config.Config, error) {
	var settings config.Settings
	if dsn := config.MySQLDSN(); dsn != "" {
		db, err := data.NewMySQL(dsn)
		if err != nil {
			return config.Config{}, err
		}
		s, err := data.LoadSettings(db)
		if err != nil {
			return config.Config{}, err
		}
		settings = s
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return config.Load(settings)
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer logCloser.Close()

	sig, err := signer.New(cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("signer: %w", err)
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	chat := discord.NewVerifier(session, cfg.DiscordGuildID, cfg.DiscordMemberSearch)
	social := twitter.NewVerifier(cfg.TwitterAPIURL, cfg.TwitterBearerToken, webclient.NewDefault(cfg.VerifierTimeout))
	svc := attest.New(social, chat, sig, cfg.VerifierTimeout)

	var limiter webserver.Limiter
	if cfg.RedisURL != "" {
		rdb, err := data.NewRedis(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		limiter = webserver.NewRedisLimiter(rdb)
	} else {
		mem := webserver.NewMemoryLimiter(cfg.RateLimitWindow)
		defer mem.Close()
		limiter = mem
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := webserver.New(webserver.Options{
		FrontendURL:   cfg.FrontendURL,
		Production:    cfg.Production(),
		SignerAddress: sig.Address().Hex(),
		Limiter:       limiter,
		RateLimit:     cfg.RateLimitRequests,
		RateWindow:    cfg.RateLimitWindow,
		Logger:        logger,
	}, svc)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listen := httpSrv.ListenAndServe
	if cfg.TLSEnabled() {
		reloader, err := webserver.NewTLSReloader(cfg.TLSCertFile, cfg.TLSKeyFile, 5*time.Minute, logger)
		if err != nil {
			return err
		}
		defer reloader.Close()
		httpSrv.TLSConfig = reloader.Config()
		listen = func() error { return httpSrv.ListenAndServeTLS("", "") }
	}

	errCh := make(chan error, 1)
	go func() {
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Info().
		Str("port", cfg.Port).
		Str("signer", sig.Address().Hex()).
		Str("environment", cfg.Environment).
		Bool("tls", cfg.TLSEnabled()).
		Msg("attestation API listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-stop:
	case <-ctx.Done():
	}

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	logger.Info().Msg("shutting down")
	return httpSrv.Shutdown(shutCtx)
}
