package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/poynt/relay/pkg/logger"
)

const (
	// rpcTimeout bounds a single RPC call when the caller's context has no deadline
	rpcTimeout = 15 * time.Second
)

type Solana struct {
	logger *logger.Logger
	apiURL string
	client *rpc.Client
}

// NewSolana creates a new Solana RPC wrapper.
func NewSolana(apiURL string, logger *logger.Logger) *Solana {
	return &Solana{
		apiURL: apiURL,
		logger: logger,
		client: rpc.New(apiURL),
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, rpcTimeout)
}

// GetLatestBlockhash fetches the latest blockhash at confirmed commitment.
func (s *Solana) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if res == nil || res.Value == nil {
		return solana.Hash{}, 0, fmt.Errorf("failed to get latest blockhash: empty response")
	}
	s.logger.Debugw("Fetched latest blockhash", "blockhash", res.Value.Blockhash.String(), "last_valid_block_height", res.Value.LastValidBlockHeight)

	return res.Value.Blockhash, res.Value.LastValidBlockHeight, nil
}

func (s *Solana) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := s.client.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return res.Value, nil
}

// SendTransaction submits a fully signed transaction.
func (s *Solana) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

func (s *Solana) Close() error {
	return s.client.Close()
}
