package models

import "context"

type RelayI interface {
	// Start starts background work (fee payer balance watcher). It blocks until ctx is done.
	Start(ctx context.Context)

	// Execute validates, resolves and finalizes a single request.
	Execute(ctx context.Context, req *OperationRequest) (*RelayResponse, error)

	// Record journals the outcome of a request and fans out alerts and events.
	Record(ctx context.Context, req *OperationRequest, resp *RelayResponse, httpStatus int, err error)

	// Operations returns the newest journal records of a signer.
	Operations(ctx context.Context, signer string, limit int) ([]*OperationRecord, error)

	// FeePayerStatus returns the fee payer address and its balance in lamports.
	FeePayerStatus(ctx context.Context) (string, uint64, error)

	// Ready reports whether the journal is reachable.
	Ready(ctx context.Context) error
}

// APIServer is the HTTP front of the relay.
type APIServer interface {
	// Start blocks serving requests until Shutdown is called.
	Start()
	Shutdown() error
}
