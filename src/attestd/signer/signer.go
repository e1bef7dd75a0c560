// Package signer produces attestations an allowlist contract can check with ecrecover.
//
// The signed message is keccak256(abi.encodePacked(address wallet, string twitter, string discord)),
// wrapped in the "\x19Ethereum Signed Message:\n32" prefix. Signatures are 65 bytes R||S||V with
// V in {27, 28}, and are deterministic (RFC 6979) for a given key and claim.
package signer

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/stake-plus/allowlist-attest/src/attestd/claim"
)

var (
	ErrInvalidKey       = errors.New("invalid signing key")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// New parses a hex secp256k1 private key, with or without 0x.
func New(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address is the public address the consuming contract trusts.
func (s *Signer) Address() common.Address {
	return s.address
}

// Digest hashes the claim exactly as submitted: 20 address bytes, then the raw handle bytes.
func Digest(c claim.Claim) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(c.Address().Bytes())
	h.Write([]byte(c.SocialHandle()))
	h.Write([]byte(c.ChatHandle()))
	return h.Sum(nil)
}

func (s *Signer) Sign(c claim.Claim) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(Digest(c)), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign attestation: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Recover returns the address that produced sig over c, mirroring the on-chain check.
func Recover(c claim.Claim, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	raw := bytes.Clone(sig)
	if raw[crypto.RecoveryIDOffset] >= 27 {
		raw[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(Digest(c)), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
