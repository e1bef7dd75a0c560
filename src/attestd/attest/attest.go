// Package attest runs a claim through validation, both identity checks and the signer.
package attest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stake-plus/allowlist-attest/src/attestd/claim"
	"github.com/stake-plus/allowlist-attest/src/attestd/identity"
)

const DefaultVerifierTimeout = 10 * time.Second

var (
	ErrVerificationFailed = errors.New("social verification failed")
	ErrSigning            = errors.New("signing failed")
	ErrUnexpected         = errors.New("unexpected failure")
)

// Signer signs a claim that has passed every check.
type Signer interface {
	Sign(c claim.Claim) ([]byte, error)
}

// Result keeps each check's outcome; the claim is verified only if both are.
type Result struct {
	Social identity.Outcome
	Chat   identity.Outcome
}

func (r Result) SocialVerified() bool { return r.Social.OK() }
func (r Result) ChatVerified() bool   { return r.Chat.OK() }
func (r Result) Verified() bool       { return r.SocialVerified() && r.ChatVerified() }

type Attestation struct {
	Claim     claim.Claim
	Signature []byte
}

// SignatureHex is the 0x-prefixed form handed to the contract.
func (a Attestation) SignatureHex() string {
	return hexutil.Encode(a.Signature)
}

// VerificationError reports which of the two checks failed.
type VerificationError struct {
	Result Result
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("social verification failed (twitter=%t discord=%t)",
		e.Result.SocialVerified(), e.Result.ChatVerified())
}

func (e *VerificationError) Unwrap() error { return ErrVerificationFailed }

type Service struct {
	social  identity.SocialVerifier
	chat    identity.ChatVerifier
	signer  Signer
	timeout time.Duration
}

func New(social identity.SocialVerifier, chat identity.ChatVerifier, signer Signer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultVerifierTimeout
	}
	return &Service{social: social, chat: chat, signer: signer, timeout: timeout}
}

// Attest returns a signed attestation, or one of:
// *claim.ValidationError, *VerificationError, an error wrapping ErrSigning or ErrUnexpected.
func (s *Service) Attest(ctx context.Context, c claim.Claim) (Attestation, Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("wallet", c.WalletAddress()).Logger()
	logger.Debug().Stringer("stage", StageReceived).Msg("claim received")

	if err := claim.Validate(c); err != nil {
		logger.Info().Err(err).Stringer("stage", StageResponded).Msg("claim rejected")
		return Attestation{}, Result{}, err
	}
	logger.Debug().Stringer("stage", StageValidated).Msg("claim well-formed")

	logger.Debug().Stringer("stage", StageVerifying).Msg("dispatching identity checks")
	res, err := s.verify(ctx, c)
	if err != nil {
		return Attestation{}, res, err
	}

	logger.Debug().
		Stringer("stage", StageDecided).
		Stringer("twitter", res.Social.Status).
		Stringer("discord", res.Chat.Status).
		Msg("identity checks finished")
	if !res.Verified() {
		return Attestation{}, res, &VerificationError{Result: res}
	}

	sig, err := s.signer.Sign(c)
	if err != nil {
		return Attestation{}, res, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	logger.Info().Stringer("stage", StageResponded).Msg("attestation issued")
	return Attestation{Claim: c, Signature: sig}, res, nil
}

// verify runs both checks to completion even when one fails fast.
func (s *Service) verify(ctx context.Context, c claim.Claim) (Result, error) {
	var (
		g                  errgroup.Group
		res                Result
		socialErr, chatErr error
	)
	username, discriminator := c.ChatParts()

	g.Go(func() error {
		res.Social, socialErr = s.bounded(ctx, func(ctx context.Context) identity.Outcome {
			return s.social.VerifySocial(ctx, c.SocialUsername())
		})
		return nil
	})
	g.Go(func() error {
		res.Chat, chatErr = s.bounded(ctx, func(ctx context.Context) identity.Outcome {
			return s.chat.VerifyChat(ctx, username, discriminator)
		})
		return nil
	})
	_ = g.Wait()

	return res, errors.Join(socialErr, chatErr)
}

type callResult struct {
	out       identity.Outcome
	recovered any
}

// bounded caps one verifier call at s.timeout whether or not it honours ctx.
// A panic inside the verifier becomes an ErrUnexpected error.
func (s *Service) bounded(ctx context.Context, fn func(context.Context) identity.Outcome) (identity.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{recovered: r}
			}
		}()
		done <- callResult{out: fn(ctx)}
	}()

	select {
	case r := <-done:
		if r.recovered != nil {
			return identity.ProviderError(fmt.Errorf("verifier panic: %v", r.recovered)),
				fmt.Errorf("%w: verifier panic: %v", ErrUnexpected, r.recovered)
		}
		return r.out, nil
	case <-ctx.Done():
		return identity.ProviderError(fmt.Errorf("verifier timed out: %w", ctx.Err())), nil
	}
}
