// Package relayclient is the wallet side of the gasless relay: it requests an operation,
// adds the wallet signature to the fee-payer signed transaction and submits it.
package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

const (
	// GaslessPath is the relay route for loyalty operations
	GaslessPath = "/api/loyalty/gasless"

	defaultTimeout = 60 * time.Second
)

// Wallet signs transaction messages. solana.PrivateKey satisfies it.
type Wallet interface {
	PublicKey() solana.PublicKey
	Sign(payload []byte) (solana.Signature, error)
}

// Sender submits fully signed transactions to the network.
type Sender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// RelayError is a response with success set to false.
type RelayError struct {
	StatusCode int
	Message    string
}

func (e *RelayError) Error() string {
	return e.Message
}

// Result is the outcome of Execute. Signature is set only when a transaction was submitted.
type Result struct {
	Signature string
	Body      map[string]interface{}
}

// Client talks to one relay on behalf of one wallet
type Client struct {
	baseURL string
	wallet  Wallet
	sender  Sender
	http    *http.Client
}

func New(baseURL string, wallet Wallet, sender Sender) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		wallet:  wallet,
		sender:  sender,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Execute posts req to the relay. When the response carries a serialized transaction,
// the wallet signs it and the transaction is submitted. There is no retry.
func (c *Client) Execute(ctx context.Context, req interface{}) (*Result, error) {
	body, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}

	serialized, _ := body["serializedTransaction"].(string)
	if serialized == "" {
		return &Result{Body: body}, nil
	}

	tx, err := c.cosign(serialized)
	if err != nil {
		return nil, err
	}

	sig, err := c.sender.SendTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transaction: %w", err)
	}
	return &Result{Signature: sig.String(), Body: body}, nil
}

func (c *Client) post(ctx context.Context, req interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GaslessPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read relay response: %w", err)
	}

	body := map[string]interface{}{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &RelayError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("relay returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
	}

	if success, _ := body["success"].(bool); !success {
		message, _ := body["message"].(string)
		if message == "" {
			message = fmt.Sprintf("relay returned status %d", resp.StatusCode)
		}
		return nil, &RelayError{StatusCode: resp.StatusCode, Message: message}
	}
	return body, nil
}

// cosign fills the wallet's signature slot and keeps the others as returned by the relay
func (c *Client) cosign(serialized string) (*solana.Transaction, error) {
	raw, err := base58.Decode(serialized)
	if err != nil {
		return nil, fmt.Errorf("invalid serialized transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid serialized transaction: %w", err)
	}

	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(tx.Signatures) != required || len(tx.Message.AccountKeys) < required {
		return nil, fmt.Errorf("invalid serialized transaction: %d signatures for %d signers", len(tx.Signatures), required)
	}

	wallet := c.wallet.PublicKey()
	index := -1
	for i, key := range tx.Message.AccountKeys[:required] {
		if key.Equals(wallet) {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("wallet %s is not a signer of the transaction", wallet)
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction message: %w", err)
	}
	sig, err := c.wallet.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	tx.Signatures[index] = sig
	return tx, nil
}
