package relay

import (
	"context"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/internal/signer"
)

// finalizer turns an unsigned protocol transaction into a fee-payer signed one.
type finalizer struct {
	chain models.BlockchainService
}

func (f *finalizer) finalize(ctx context.Context, payer *signer.FeePayer, result *models.ProtocolResult) (*models.FinalizedTransaction, error) {
	unsigned, err := decodeTransaction(result.Transaction)
	if err != nil {
		return nil, err
	}

	instructions, err := decompile(&unsigned.Message)
	if err != nil {
		return nil, err
	}

	blockhash, lastValidBlockHeight, err := f.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild transaction: %w", err)
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction message: %w", err)
	}
	sig, err := payer.Sign(message)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	// the fee payer is always account 0; the remaining signature slots stay empty for the wallet
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	tx.Signatures[0] = sig

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	return &models.FinalizedTransaction{
		Success:               true,
		SerializedTransaction: base58.Encode(raw),
		Message:               base64.StdEncoding.EncodeToString(message),
		Signature:             optional(result.Signature),
		CollectionAddress:     optional(result.CollectionAddress),
		PassAddress:           optional(result.PassAddress),
		EstimatedFee:          models.EstimatedFeeLamports,
		Gasless:               true,
		LastValidBlockHeight:  lastValidBlockHeight,
	}, nil
}

func decodeTransaction(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode protocol transaction: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode protocol transaction: %w", err)
	}
	return tx, nil
}

// decompile recovers the instructions of a message with their signer and writable flags
func decompile(msg *solana.Message) ([]solana.Instruction, error) {
	if len(msg.Instructions) == 0 {
		return nil, fmt.Errorf("protocol transaction has no instructions")
	}
	metas, err := msg.AccountMetaList()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve transaction accounts: %w", err)
	}

	instructions := make([]solana.Instruction, 0, len(msg.Instructions))
	for i, compiled := range msg.Instructions {
		if int(compiled.ProgramIDIndex) >= len(metas) {
			return nil, fmt.Errorf("instruction %d: program index %d out of range", i, compiled.ProgramIDIndex)
		}
		programID := metas[compiled.ProgramIDIndex].PublicKey

		accounts := make(solana.AccountMetaSlice, len(compiled.Accounts))
		for j, idx := range compiled.Accounts {
			if int(idx) >= len(metas) {
				return nil, fmt.Errorf("instruction %d: account index %d out of range", i, idx)
			}
			meta := metas[idx]
			accounts[j] = solana.NewAccountMeta(meta.PublicKey, meta.IsWritable, meta.IsSigner)
		}
		instructions = append(instructions, solana.NewInstruction(programID, accounts, []byte(compiled.Data)))
	}
	return instructions, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
