package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	tokenService = "pulsedesk"
	tokenAccount = "api_token"
)

// GetAPIToken returns the bearer token protecting the management API,
// generating and persisting one on first use. The token only guards the
// local loopback listener against other processes on the machine.
func GetAPIToken() (string, error) {
	if tok, err := secretGet(tokenService, tokenAccount); err == nil && tok != "" {
		return tok, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	tok := hex.EncodeToString(buf)

	if err := secretSet(tokenService, tokenAccount, tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}
