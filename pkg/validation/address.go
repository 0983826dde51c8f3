package validation

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ValidateAddress validates a base58 encoded Solana public key
func ValidateAddress(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("address cannot be empty")
	}

	// 32 bytes encode to 32..44 base58 characters
	if len(addr) < 32 || len(addr) > 44 {
		return fmt.Errorf("invalid address length: expected 32-44 characters, got %d", len(addr))
	}

	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid base58 address: %w", err)
	}

	return nil
}

// NormalizeAddress trims surrounding whitespace. Base58 is case sensitive so nothing else changes.
func NormalizeAddress(addr string) string {
	return strings.TrimSpace(addr)
}

// ValidateAndParseAddress validates an address and returns the parsed public key
func ValidateAndParseAddress(addr string) (solana.PublicKey, error) {
	addr = NormalizeAddress(addr)
	if err := ValidateAddress(addr); err != nil {
		return solana.PublicKey{}, err
	}
	return solana.MustPublicKeyFromBase58(addr), nil
}
