package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/poynt/relay/internal/config"
	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/internal/signer"
	"github.com/poynt/relay/pkg/logger"
)

// protocolSpy records every protocol call and answers through respond.
type protocolSpy struct {
	mu       sync.Mutex
	calls    int
	contexts []models.ProtocolContext
	creates  []models.CreateProgramParams
	updates  []models.UpdateProgramParams
	issues   []models.IssuePassParams
	awards   []models.AwardPointsParams
	revokes  []models.RevokePointsParams
	gifts    []models.GiftPointsParams

	respond func(params interface{}) (*models.ProtocolResult, error)
}

func (s *protocolSpy) record(pctx models.ProtocolContext, params interface{}) (*models.ProtocolResult, error) {
	s.mu.Lock()
	s.calls++
	s.contexts = append(s.contexts, pctx)
	switch p := params.(type) {
	case models.CreateProgramParams:
		s.creates = append(s.creates, p)
	case models.UpdateProgramParams:
		s.updates = append(s.updates, p)
	case models.IssuePassParams:
		s.issues = append(s.issues, p)
	case models.AwardPointsParams:
		s.awards = append(s.awards, p)
	case models.RevokePointsParams:
		s.revokes = append(s.revokes, p)
	case models.GiftPointsParams:
		s.gifts = append(s.gifts, p)
	}
	respond := s.respond
	s.mu.Unlock()

	if respond == nil {
		return &models.ProtocolResult{Fields: map[string]interface{}{}}, nil
	}
	return respond(params)
}

func (s *protocolSpy) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *protocolSpy) CreateLoyaltyProgram(_ context.Context, pctx models.ProtocolContext, p models.CreateProgramParams) (*models.ProtocolResult, error) {
	return s.record(pctx, p)
}

func (s *protocolSpy) UpdateLoyaltyProgram(_ context.Context, pctx models.ProtocolContext, p models.UpdateProgramParams) (*models.ProtocolResult, error) {
	return s.record(pctx, p)
}

func (s *protocolSpy) IssueLoyaltyPass(_ context.Context, pctx models.ProtocolContext, p models.IssuePassParams) (*models.ProtocolResult, error) {
	return s.record(pctx, p)
}

func (s *protocolSpy) AwardLoyaltyPoints(_ context.Context, pctx models.ProtocolContext, p models.AwardPointsParams) (*models.ProtocolResult, error) {
	return s.record(pctx, p)
}

func (s *protocolSpy) RevokeLoyaltyPoints(_ context.Context, pctx models.ProtocolContext, p models.RevokePointsParams) (*models.ProtocolResult, error) {
	return s.record(pctx, p)
}

func (s *protocolSpy) GiftLoyaltyPoints(_ context.Context, pctx models.ProtocolContext, p models.GiftPointsParams) (*models.ProtocolResult, error) {
	return s.record(pctx, p)
}

type fakeChain struct {
	blockhash    solana.Hash
	height       uint64
	balance      uint64
	blockhashErr error
	balanceErr   error
}

func (c *fakeChain) GetLatestBlockhash(context.Context) (solana.Hash, uint64, error) {
	return c.blockhash, c.height, c.blockhashErr
}

func (c *fakeChain) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return c.balance, c.balanceErr
}

func (c *fakeChain) SendTransaction(context.Context, *solana.Transaction) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not supported")
}

type memoryRepo struct {
	mu      sync.Mutex
	records []*models.OperationRecord
	saveErr error
	pingErr error
}

func (m *memoryRepo) SaveOperation(_ context.Context, record *models.OperationRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRepo) GetOperation(_ context.Context, id string) (*models.OperationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memoryRepo) GetOperationsBySigner(_ context.Context, signer string, limit int) ([]*models.OperationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.OperationRecord
	for _, r := range m.records {
		if r.Signer == signer {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) Ping(context.Context) error { return m.pingErr }
func (m *memoryRepo) Close() error                { return nil }

type alertSpy struct {
	mu       sync.Mutex
	messages []string
}

func (a *alertSpy) SendAlert(_ context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

func (a *alertSpy) snapshot() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

type eventSpy struct {
	mu     sync.Mutex
	events []models.OperationEvent
	err    error
}

func (e *eventSpy) PublishOperation(_ context.Context, event models.OperationEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return e.err
}

func (e *eventSpy) Close() {}

type harness struct {
	relay    *Relay
	protocol *protocolSpy
	chain    *fakeChain
	repo     *memoryRepo
	alerts   *alertSpy
	events   *eventSpy
	payer    solana.PrivateKey
	config   *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return newHarnessWithSecret(t, payer.String(), payer)
}

func newHarnessWithSecret(t *testing.T, secret string, payer solana.PrivateKey) *harness {
	t.Helper()
	h := &harness{
		protocol: &protocolSpy{},
		chain:    &fakeChain{blockhash: solana.Hash{9, 9, 9}, height: 777, balance: 1_000_000_000},
		repo:     &memoryRepo{},
		alerts:   &alertSpy{},
		events:   &eventSpy{},
		payer:    payer,
		config: &config.Config{
			BatchConcurrency:     4,
			MinFeePayerLamports:  50_000_000,
			BalanceCheckInterval: time.Minute,
		},
	}
	h.relay = NewRelay(h.repo, h.chain, h.protocol, h.alerts, h.events, signer.NewProvider(secret), logger.NewNop(), h.config)
	h.relay.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return h
}

func newPublicKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

// unsignedTransaction builds a base64 transaction the way the protocol gateway returns it:
// paid by feePayer, requiring wallet's signature and carrying no signatures.
func unsignedTransaction(t *testing.T, feePayer, wallet, pass solana.PublicKey) string {
	t.Helper()
	program := newPublicKey(t)
	instruction := solana.NewInstruction(program, solana.AccountMetaSlice{
		solana.NewAccountMeta(wallet, false, true),
		solana.NewAccountMeta(pass, true, false),
	}, []byte{7, 1, 0, 0, 0})

	tx, err := solana.NewTransaction([]solana.Instruction{instruction}, solana.Hash{}, solana.TransactionPayer(feePayer))
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }
