// Package claim holds the identity tuple a client submits and its structural checks.
package claim

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	SocialSigil   = "@"
	ChatDelimiter = "#"
	FieldWallet   = "walletAddress"
	FieldSocial   = "twitterHandle"
	FieldChat     = "discordHandle"
)

var (
	ErrInvalidAddress            = errors.New("invalid wallet address")
	ErrInvalidSocialHandleFormat = errors.New("invalid twitter handle format")
	ErrInvalidChatHandleFormat   = errors.New("invalid discord handle format")
)

// client-facing wording for each sentinel
var messages = map[error]string{
	ErrInvalidAddress:            "Invalid wallet address",
	ErrInvalidSocialHandleFormat: "Invalid Twitter handle format",
	ErrInvalidChatHandleFormat:   "Invalid Discord handle format",
}

// Claim binds a wallet to a Twitter handle and a Discord handle.
type Claim struct {
	walletAddress string
	socialHandle  string
	chatHandle    string
}

func New(walletAddress, socialHandle, chatHandle string) Claim {
	return Claim{
		walletAddress: strings.TrimSpace(walletAddress),
		socialHandle:  strings.TrimSpace(socialHandle),
		chatHandle:    strings.TrimSpace(chatHandle),
	}
}

func (c Claim) WalletAddress() string { return c.walletAddress }
func (c Claim) SocialHandle() string  { return c.socialHandle }
func (c Claim) ChatHandle() string    { return c.chatHandle }

// Address is only meaningful after Validate succeeded.
func (c Claim) Address() common.Address {
	return common.HexToAddress(c.walletAddress)
}

// SocialUsername is the social handle with its sigil stripped.
func (c Claim) SocialUsername() string {
	return strings.TrimPrefix(c.socialHandle, SocialSigil)
}

// ChatParts splits the chat handle at the first delimiter.
func (c Claim) ChatParts() (username, discriminator string) {
	username, discriminator, _ = strings.Cut(c.chatHandle, ChatDelimiter)
	return username, discriminator
}

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// Message is the text returned to API clients.
func (e *ValidationError) Message() string {
	if m, ok := messages[e.Err]; ok {
		return m
	}
	return e.Err.Error()
}

// Validate checks the wallet, then the social handle, then the chat handle,
// stopping at the first failure.
func Validate(c Claim) error {
	if !common.IsHexAddress(c.walletAddress) {
		return &ValidationError{Field: FieldWallet, Err: ErrInvalidAddress}
	}
	if !strings.HasPrefix(c.socialHandle, SocialSigil) {
		return &ValidationError{Field: FieldSocial, Err: ErrInvalidSocialHandleFormat}
	}
	if !strings.Contains(c.chatHandle, ChatDelimiter) {
		return &ValidationError{Field: FieldChat, Err: ErrInvalidChatHandleFormat}
	}
	return nil
}
