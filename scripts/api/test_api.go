// Minimal end-to-end check against a running attestd.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/stake-plus/allowlist-attest/src/attestd/claim"
	"github.com/stake-plus/allowlist-attest/src/attestd/signer"
)

var (
	baseURL = getenv("API_URL", "http://localhost:3001")
	wallet  = getenv("ATTEST_WALLET", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	twitter = getenv("ATTEST_TWITTER", "@jack")
	discord = getenv("ATTEST_DISCORD", "")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	health()
	address := signerAddress()
	rejectsBadWallet()

	if discord == "" {
		fmt.Println("✓ health, signer and validation passed (set ATTEST_DISCORD to exercise /api/verify)")
		return
	}
	verify(address)
	fmt.Println("✓ all endpoints passed")
}

func health() {
	var resp struct{ Status string }
	doJSON("GET", "/health", nil, &resp, http.StatusOK)
	if resp.Status != "healthy" {
		log.Fatalf("health: got %q", resp.Status)
	}
}

func signerAddress() string {
	var resp struct{ Address string }
	doJSON("GET", "/api/signer", nil, &resp, http.StatusOK)
	if resp.Address == "" {
		log.Fatal("signer: empty address")
	}
	return resp.Address
}

func rejectsBadWallet() {
	var resp struct{ Error string }
	doJSON("POST", "/api/verify", map[string]any{
		"walletAddress": "0x1234",
		"twitterHandle": twitter,
		"discordHandle": "someone#0001",
	}, &resp, http.StatusBadRequest)
	if resp.Error != "Invalid wallet address" {
		log.Fatalf("verify: unexpected validation error %q", resp.Error)
	}
}

func verify(address string) {
	var resp struct {
		Success   bool
		Signature string
	}
	doJSON("POST", "/api/verify", map[string]any{
		"walletAddress": wallet,
		"twitterHandle": twitter,
		"discordHandle": discord,
	}, &resp, http.StatusOK)

	sig, err := hexutil.Decode(resp.Signature)
	if err != nil {
		log.Fatalf("verify: signature: %v", err)
	}
	got, err := signer.Recover(claim.New(wallet, twitter, discord), sig)
	if err != nil {
		log.Fatalf("verify: recover: %v", err)
	}
	if !strings.EqualFold(got.Hex(), address) {
		log.Fatalf("verify: signature recovers to %s, signer is %s", got.Hex(), address)
	}
}

// ----------------------------- helpers

func doJSON(method, path string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	id := uuid.NewString()
	req.Header.Set("X-Request-ID", id)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d (request %s)", method, path, want, res.StatusCode, id)
	}
	if echoed := res.Header.Get("X-Request-ID"); echoed != id {
		log.Fatalf("%s %s: request id not echoed, got %q", method, path, echoed)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
