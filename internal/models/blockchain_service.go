package models

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// BlockchainService represents a service that interacts with the Solana cluster.
type BlockchainService interface {
	// GetLatestBlockhash returns the latest blockhash and its last valid block height at confirmed commitment.
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}
