package relayclient

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*solana.Transaction
	err  error
}

func (f *fakeSender) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.err != nil {
		return solana.Signature{}, f.err
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key
}

// partiallySigned mimics a relay response: fee payer first and signed, wallet slot empty
func partiallySigned(t *testing.T, feePayer solana.PrivateKey, wallet solana.PublicKey) string {
	t.Helper()
	instruction := solana.NewInstruction(newKey(t).PublicKey(), solana.AccountMetaSlice{
		solana.NewAccountMeta(wallet, false, true),
	}, []byte{1})
	tx, err := solana.NewTransaction([]solana.Instruction{instruction}, solana.Hash{9}, solana.TransactionPayer(feePayer.PublicKey()))
	require.NoError(t, err)

	message, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	sig, err := feePayer.Sign(message)
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	tx.Signatures[0] = sig

	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base58.Encode(raw)
}

func relayStub(t *testing.T, status int, body interface{}, got *map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, GaslessPath, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExecute_CosignsAndSubmits(t *testing.T) {
	feePayer := newKey(t)
	wallet := newKey(t)
	serialized := partiallySigned(t, feePayer, wallet.PublicKey())

	var got map[string]interface{}
	server := relayStub(t, http.StatusOK, map[string]interface{}{
		"success":               true,
		"gasless":               true,
		"serializedTransaction": serialized,
	}, &got)

	sender := &fakeSender{}
	client := New(server.URL+"/", wallet, sender)

	result, err := client.Execute(context.Background(), map[string]interface{}{
		"type":   "GIFT_LOYALTY_POINTS",
		"signer": wallet.PublicKey().String(),
	})
	require.NoError(t, err)
	require.Equal(t, "GIFT_LOYALTY_POINTS", got["type"])
	require.Len(t, sender.sent, 1)

	tx := sender.sent[0]
	require.Len(t, tx.Signatures, 2)
	message, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	for i, key := range tx.Message.AccountKeys[:2] {
		require.True(t, ed25519.Verify(ed25519.PublicKey(key[:]), message, tx.Signatures[i][:]), "signature %d", i)
	}
	require.True(t, tx.Message.AccountKeys[0].Equals(feePayer.PublicKey()))
	require.Equal(t, tx.Signatures[0].String(), result.Signature)
}

func TestExecute_ReturnsBodyWithoutTransaction(t *testing.T) {
	server := relayStub(t, http.StatusOK, map[string]interface{}{
		"success":      true,
		"gasless":      true,
		"pointsGifted": 25,
	}, nil)
	sender := &fakeSender{}

	result, err := New(server.URL, newKey(t), sender).Execute(context.Background(), map[string]string{"type": "GIFT_LOYALTY_POINTS"})
	require.NoError(t, err)
	require.Empty(t, result.Signature)
	require.Equal(t, float64(25), result.Body["pointsGifted"])
	require.Empty(t, sender.sent)
}

func TestExecute_RelayError(t *testing.T) {
	server := relayStub(t, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": "Missing required fields: passAddress",
	}, nil)

	_, err := New(server.URL, newKey(t), &fakeSender{}).Execute(context.Background(), map[string]string{})
	require.Error(t, err)

	var relayErr *RelayError
	require.True(t, errors.As(err, &relayErr))
	require.Equal(t, http.StatusBadRequest, relayErr.StatusCode)
	require.Equal(t, "Missing required fields: passAddress", relayErr.Error())
}

func TestExecute_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, newKey(t), &fakeSender{}).Execute(context.Background(), map[string]string{})
	require.EqualError(t, err, "relay returned status 502: upstream down")
}

func TestExecute_WalletNotSigner(t *testing.T) {
	feePayer := newKey(t)
	serialized := partiallySigned(t, feePayer, newKey(t).PublicKey())
	server := relayStub(t, http.StatusOK, map[string]interface{}{
		"success":               true,
		"serializedTransaction": serialized,
	}, nil)
	sender := &fakeSender{}

	_, err := New(server.URL, newKey(t), sender).Execute(context.Background(), map[string]string{})
	require.ErrorContains(t, err, "is not a signer of the transaction")
	require.Empty(t, sender.sent)
}

func TestExecute_SubmitFailure(t *testing.T) {
	feePayer := newKey(t)
	wallet := newKey(t)
	server := relayStub(t, http.StatusOK, map[string]interface{}{
		"success":               true,
		"serializedTransaction": partiallySigned(t, feePayer, wallet.PublicKey()),
	}, nil)

	_, err := New(server.URL, wallet, &fakeSender{err: errors.New("blockhash not found")}).Execute(context.Background(), map[string]string{})
	require.EqualError(t, err, "failed to submit transaction: blockhash not found")
}

func TestExecute_InvalidSerializedTransaction(t *testing.T) {
	server := relayStub(t, http.StatusOK, map[string]interface{}{
		"success":               true,
		"serializedTransaction": "0OIl",
	}, nil)

	_, err := New(server.URL, newKey(t), &fakeSender{}).Execute(context.Background(), map[string]string{})
	require.ErrorContains(t, err, "invalid serialized transaction")
}
