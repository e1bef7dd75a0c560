// Package identity defines the verifier contracts shared by the Twitter and Discord checks.
package identity

import "context"

type Status int

const (
	StatusProviderError Status = iota
	StatusVerified
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusVerified:
		return "verified"
	case StatusNotFound:
		return "not_found"
	default:
		return "provider_error"
	}
}

// Outcome is what a verifier observed. Err is set only for StatusProviderError.
type Outcome struct {
	Status Status
	Err    error
}

func Verified() Outcome               { return Outcome{Status: StatusVerified} }
func NotFound() Outcome               { return Outcome{Status: StatusNotFound} }
func ProviderError(err error) Outcome { return Outcome{Status: StatusProviderError, Err: err} }

// OK collapses the outcome to the boolean the orchestrator decides on.
func (o Outcome) OK() bool { return o.Status == StatusVerified }

// SocialVerifier confirms a Twitter username (sigil already stripped) exists.
type SocialVerifier interface {
	VerifySocial(ctx context.Context, username string) Outcome
}

// ChatVerifier confirms username#discriminator is a member of the configured guild.
type ChatVerifier interface {
	VerifyChat(ctx context.Context, username, discriminator string) Outcome
}
