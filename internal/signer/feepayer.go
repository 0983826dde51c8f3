package signer

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ErrMissingFeePayer is returned at request time when no fee payer key is configured.
// The text is shown to clients verbatim.
var ErrMissingFeePayer = errors.New("Missing fee payer private key in environment variables")

// FeePayer is the server-held keypair that pays network fees of relayed transactions.
// It is immutable and safe for concurrent use.
type FeePayer struct {
	key solana.PrivateKey
}

// NewFeePayer parses a secret key, either base58 or the JSON byte array written by solana-keygen.
func NewFeePayer(secret string) (*FeePayer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingFeePayer
	}

	var raw []byte
	if strings.HasPrefix(secret, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(secret), &ints); err != nil {
			return nil, fmt.Errorf("invalid fee payer private key: %w", err)
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("invalid fee payer private key: byte %d out of range", i)
			}
			raw[i] = byte(v)
		}
	} else {
		key, err := solana.PrivateKeyFromBase58(secret)
		if err != nil {
			return nil, fmt.Errorf("invalid fee payer private key: %w", err)
		}
		raw = key
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid fee payer private key: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	// the second half of an ed25519 secret key is the public key derived from the seed
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived, raw) {
		return nil, fmt.Errorf("invalid fee payer private key: public half does not match seed")
	}

	return &FeePayer{key: solana.PrivateKey(raw)}, nil
}

// PublicKey returns the fee payer address.
func (f *FeePayer) PublicKey() solana.PublicKey {
	return f.key.PublicKey()
}

// Sign signs a serialized transaction message.
func (f *FeePayer) Sign(message []byte) (solana.Signature, error) {
	return f.key.Sign(message)
}

// Provider derives the fee payer once, on first use, from the configured secret.
type Provider struct {
	secret string

	once  sync.Once
	payer *FeePayer
	err   error
}

func NewProvider(secret string) *Provider {
	return &Provider{secret: secret}
}

// FeePayer returns the cached fee payer or the error that prevented deriving it.
func (p *Provider) FeePayer() (*FeePayer, error) {
	p.once.Do(func() {
		p.payer, p.err = NewFeePayer(p.secret)
	})
	return p.payer, p.err
}
