package webserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stake-plus/allowlist-attest/src/attestd/attest"
	"github.com/stake-plus/allowlist-attest/src/attestd/claim"
)

// Attester is the verification pipeline behind POST /api/verify.
type Attester interface {
	Attest(ctx context.Context, c claim.Claim) (attest.Attestation, attest.Result, error)
}

type Options struct {
	FrontendURL   string
	Production    bool
	SignerAddress string
	Limiter       Limiter // nil disables rate limiting
	RateLimit     int
	RateWindow    time.Duration
	Logger        zerolog.Logger
}

func New(opts Options, svc Attester) *gin.Engine {
	g := gin.New()
	g.Use(requestContext(opts.Logger), recovery(opts.Production))
	attachRoutes(g, opts, svc)
	return g
}
