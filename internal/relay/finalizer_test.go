package relay

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/internal/signer"
)

func TestDecompile_RoundTrip(t *testing.T) {
	payer := newPublicKey(t)
	wallet := newPublicKey(t)
	pass := newPublicKey(t)

	tx, err := decodeTransaction(unsignedTransaction(t, payer, wallet, pass))
	require.NoError(t, err)
	require.Empty(t, tx.Signatures)

	instructions, err := decompile(&tx.Message)
	require.NoError(t, err)
	require.Len(t, instructions, 1)

	accounts := instructions[0].Accounts()
	require.Len(t, accounts, 2)
	require.Equal(t, wallet, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.False(t, accounts[0].IsWritable)
	require.Equal(t, pass, accounts[1].PublicKey)
	require.True(t, accounts[1].IsWritable)
	require.False(t, accounts[1].IsSigner)

	data, err := instructions[0].Data()
	require.NoError(t, err)
	require.Equal(t, []byte{7, 1, 0, 0, 0}, data)
}

func TestDecompile_RejectsBadIndexes(t *testing.T) {
	tx, err := decodeTransaction(unsignedTransaction(t, newPublicKey(t), newPublicKey(t), newPublicKey(t)))
	require.NoError(t, err)

	bad := tx.Message
	bad.Instructions = []solana.CompiledInstruction{{ProgramIDIndex: 200}}
	_, err = decompile(&bad)
	require.ErrorContains(t, err, "program index 200 out of range")

	bad.Instructions = []solana.CompiledInstruction{{ProgramIDIndex: 0, Accounts: []uint16{99}}}
	_, err = decompile(&bad)
	require.ErrorContains(t, err, "account index 99 out of range")

	bad.Instructions = nil
	_, err = decompile(&bad)
	require.ErrorContains(t, err, "no instructions")
}

func TestDecodeTransaction_Errors(t *testing.T) {
	_, err := decodeTransaction("%%%")
	require.ErrorContains(t, err, "failed to decode protocol transaction")

	_, err = decodeTransaction(base64.StdEncoding.EncodeToString([]byte{1}))
	require.ErrorContains(t, err, "failed to decode protocol transaction")
}

func TestFinalize_CarriesResultFields(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	payer, err := signer.NewFeePayer(key.String())
	require.NoError(t, err)

	f := &finalizer{chain: &fakeChain{blockhash: solana.Hash{1}, height: 10}}
	out, err := f.finalize(context.Background(), payer, &models.ProtocolResult{
		Transaction:       unsignedTransaction(t, key.PublicKey(), newPublicKey(t), newPublicKey(t)),
		Signature:         "sig",
		CollectionAddress: "Collection1",
	})
	require.NoError(t, err)
	require.Equal(t, "sig", *out.Signature)
	require.Equal(t, "Collection1", *out.CollectionAddress)
	require.Nil(t, out.PassAddress)
	require.Equal(t, uint64(10), out.LastValidBlockHeight)
}
