package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stake-plus/allowlist-attest/src/attestd/attest"
	"github.com/stake-plus/allowlist-attest/src/attestd/claim"
)

const internalErrorMessage = "Internal server error"

type Health struct{}

func (Health) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type Signer struct {
	address string
}

func (s Signer) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"address": s.address})
}

type Verify struct {
	svc        Attester
	production bool
}

func NewVerify(svc Attester, production bool) Verify {
	return Verify{svc: svc, production: production}
}

func (v Verify) Create(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		TwitterHandle string `json:"twitterHandle"`
		DiscordHandle string `json:"discordHandle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	cl := claim.New(req.WalletAddress, req.TwitterHandle, req.DiscordHandle)
	att, res, err := v.svc.Attest(c.Request.Context(), cl)

	var (
		invalid  *claim.ValidationError
		rejected *attest.VerificationError
	)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"signature": att.SignatureHex(),
			// the exact bytes that were signed
			"socials": gin.H{
				"twitter": cl.SocialHandle(),
				"discord": cl.ChatHandle(),
			},
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Message()})
	case errors.As(err, &rejected):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Social verification failed",
			"details": gin.H{
				"twitter": res.SocialVerified(),
				"discord": res.ChatVerified(),
			},
		})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("verify request failed")
		msg := internalErrorMessage
		if !v.production {
			msg = diagnostic(err.Error())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
