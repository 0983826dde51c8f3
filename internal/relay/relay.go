package relay

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poynt/relay/internal/config"
	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/internal/signer"
	"github.com/poynt/relay/pkg/logger"
	"github.com/poynt/relay/pkg/validation"
)

const (
	// DefaultOperationsLimit is the page size of the operation history
	DefaultOperationsLimit = 50
	// MaxOperationsLimit caps the page size of the operation history
	MaxOperationsLimit = 200
)

var _ models.RelayI = (*Relay)(nil)

// Relay is the gasless relay service.
// It resolves operation requests against the loyalty protocol, co-signs the
// resulting transactions as fee payer and journals every outcome.
type Relay struct {
	logger *logger.Logger
	config *config.Config

	feePayers *signer.Provider
	resolver  *resolver
	finalizer *finalizer

	repo        models.Repository
	chain       models.BlockchainService
	notificator models.NotificationService
	events      models.EventPublisher

	now func() time.Time
}

// NewRelay creates a new Relay instance
func NewRelay(
	repo models.Repository,
	chain models.BlockchainService,
	protocol models.LoyaltyProtocol,
	notificator models.NotificationService,
	events models.EventPublisher,
	feePayers *signer.Provider,
	logger *logger.Logger,
	config *config.Config,
) *Relay {
	return &Relay{
		logger:      logger,
		config:      config,
		feePayers:   feePayers,
		resolver:    newResolver(protocol, config.BatchConcurrency, logger),
		finalizer:   &finalizer{chain: chain},
		repo:        repo,
		chain:       chain,
		notificator: notificator,
		events:      events,
		now:         time.Now,
	}
}

// Start runs the fee payer balance watcher until ctx is done
func (r *Relay) Start(ctx context.Context) {
	if r.config.BalanceCheckInterval <= 0 {
		return
	}
	ticker := time.NewTicker(r.config.BalanceCheckInterval)
	defer ticker.Stop()

	r.checkFeePayerBalance(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.checkFeePayerBalance(ctx)
		}
	}
}

func (r *Relay) checkFeePayerBalance(ctx context.Context) {
	address, balance, err := r.FeePayerStatus(ctx)
	if err != nil {
		r.logger.Warnw("Failed to check fee payer balance", "error", err)
		return
	}
	r.logger.Debugw("Fee payer balance checked", "address", address, "lamports", balance)
	if balance < r.config.MinFeePayerLamports {
		r.logger.Warnw("Fee payer balance is low", "address", address, "lamports", balance, "minimum", r.config.MinFeePayerLamports)
		r.notificator.SendAlert(ctx, fmt.Sprintf(
			"Fee payer %s balance is low: %s SOL (minimum %s SOL)",
			address, models.FormatSOL(balance), models.FormatSOL(r.config.MinFeePayerLamports),
		))
	}
}

// Execute validates, resolves and finalizes a request.
// The fee payer is checked first so that a missing key fails every operation type alike.
func (r *Relay) Execute(ctx context.Context, req *models.OperationRequest) (*models.RelayResponse, error) {
	payer, err := r.feePayers.FeePayer()
	if err != nil {
		return nil, err
	}

	op, err := r.resolver.lookup(req.Type)
	if err != nil {
		return nil, err
	}
	if err := op.validate(req); err != nil {
		return nil, err
	}

	resp, err := op.execute(ctx, protocolContext(payer, req), req)
	if err != nil {
		return nil, err
	}
	if resp.Batch != nil || !resp.Result.HasTransaction() {
		return resp, nil
	}

	finalized, err := r.finalizer.finalize(ctx, payer, resp.Result)
	if err != nil {
		return nil, err
	}
	return &models.RelayResponse{Finalized: finalized}, nil
}

// protocolContext runs every call with the signer as program authority and the fee payer as update authority
func protocolContext(payer *signer.FeePayer, req *models.OperationRequest) models.ProtocolContext {
	feePayer := payer.PublicKey().String()
	authority := strings.TrimSpace(req.Signer)
	if authority == "" {
		authority = feePayer
	}
	return models.ProtocolContext{
		FeePayer:          feePayer,
		ProgramAuthority:  authority,
		UpdateAuthority:   feePayer,
		CollectionAddress: req.CollectionAddress,
	}
}

// Record journals the outcome of a request, alerts operators on failures and
// publishes an event for successful operations. It never fails the request.
func (r *Relay) Record(ctx context.Context, req *models.OperationRequest, resp *models.RelayResponse, httpStatus int, err error) {
	if req == nil {
		req = &models.OperationRequest{}
	}
	record := newRecord(req, resp, httpStatus, err)
	record.ID = uuid.NewString()
	record.CreatedAt = r.now().UnixMilli()

	if saveErr := r.repo.SaveOperation(ctx, record); saveErr != nil {
		r.logger.Errorw("Failed to save operation record", "id", record.ID, "type", record.Type, "error", saveErr)
	}

	switch {
	case record.Status == models.StatusFailed:
		r.alert(ctx, fmt.Sprintf("Operation %s failed (signer %s): %s", record.Type, orDash(record.Signer), record.Message))
	case record.BatchFailures > 0:
		r.alert(ctx, fmt.Sprintf("Batch %s finished with %d of %d items failed (signer %s)",
			record.Type, record.BatchFailures, record.BatchTotal, orDash(record.Signer)))
	}

	if record.Status != models.StatusSucceeded {
		return
	}
	event := models.OperationEvent{
		ID:                record.ID,
		Type:              req.Type,
		Signer:            record.Signer,
		CollectionAddress: record.CollectionAddress,
		PassAddress:       record.PassAddress,
		BatchTotal:        record.BatchTotal,
		BatchFailures:     record.BatchFailures,
		Timestamp:         time.UnixMilli(record.CreatedAt).UTC(),
	}
	if pubErr := r.events.PublishOperation(ctx, event); pubErr != nil {
		r.logger.Errorw("Failed to publish operation event", "id", record.ID, "type", record.Type, "error", pubErr)
	}
}

func (r *Relay) alert(ctx context.Context, message string) {
	go r.notificator.SendAlert(context.WithoutCancel(ctx), message)
}

func newRecord(req *models.OperationRequest, resp *models.RelayResponse, httpStatus int, err error) *models.OperationRecord {
	record := &models.OperationRecord{
		Type:              string(req.Type),
		Signer:            req.Signer,
		HTTPStatus:        httpStatus,
		CollectionAddress: req.CollectionAddress,
		PassAddress:       req.PassAddress,
	}
	switch {
	case err == nil && httpStatus < http.StatusBadRequest:
		record.Status = models.StatusSucceeded
	case httpStatus < http.StatusInternalServerError:
		record.Status = models.StatusRejected
	default:
		record.Status = models.StatusFailed
	}
	if err != nil {
		record.Message = err.Error()
	}
	if resp == nil {
		return record
	}

	switch {
	case resp.Finalized != nil:
		record.Gasless = true
		record.LastValidBlockHeight = resp.Finalized.LastValidBlockHeight
		if resp.Finalized.CollectionAddress != nil {
			record.CollectionAddress = *resp.Finalized.CollectionAddress
		}
		if resp.Finalized.PassAddress != nil {
			record.PassAddress = *resp.Finalized.PassAddress
		}
	case resp.Batch != nil:
		record.BatchTotal = resp.Batch.TotalProcessed
		record.BatchFailures = resp.Batch.FailureCount
	case resp.Result != nil:
		record.Gasless = true
		if resp.Result.CollectionAddress != "" {
			record.CollectionAddress = resp.Result.CollectionAddress
		}
		if resp.Result.PassAddress != "" {
			record.PassAddress = resp.Result.PassAddress
		}
	}
	return record
}

// Operations returns the newest journal records of a signer
func (r *Relay) Operations(ctx context.Context, signer string, limit int) ([]*models.OperationRecord, error) {
	signer = validation.NormalizeAddress(signer)
	if err := validation.ValidateAddress(signer); err != nil {
		return nil, invalid("Invalid signer address: %s", err.Error())
	}
	switch {
	case limit <= 0:
		limit = DefaultOperationsLimit
	case limit > MaxOperationsLimit:
		limit = MaxOperationsLimit
	}
	return r.repo.GetOperationsBySigner(ctx, signer, limit)
}

// FeePayerStatus returns the fee payer address and its balance in lamports
func (r *Relay) FeePayerStatus(ctx context.Context) (string, uint64, error) {
	payer, err := r.feePayers.FeePayer()
	if err != nil {
		return "", 0, err
	}
	balance, err := r.chain.GetBalance(ctx, payer.PublicKey())
	if err != nil {
		return payer.PublicKey().String(), 0, err
	}
	return payer.PublicKey().String(), balance, nil
}

// Ready reports whether the journal database is reachable
func (r *Relay) Ready(ctx context.Context) error {
	return r.repo.Ping(ctx)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
