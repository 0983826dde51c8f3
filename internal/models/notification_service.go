package models

import (
	"context"
	"time"
)

// NotificationService delivers operator alerts. Delivery failures are logged, never returned.
type NotificationService interface {
	SendAlert(ctx context.Context, message string)
}

// EventPublisher announces relayed operations to downstream consumers.
type EventPublisher interface {
	PublishOperation(ctx context.Context, event OperationEvent) error
	Close()
}

// OperationEvent is published after an operation succeeded.
type OperationEvent struct {
	ID                string        `json:"id"`
	Type              OperationType `json:"type"`
	Signer            string        `json:"signer,omitempty"`
	CollectionAddress string        `json:"collectionAddress,omitempty"`
	PassAddress       string        `json:"passAddress,omitempty"`
	BatchTotal        int           `json:"batchTotal,omitempty"`
	BatchFailures     int           `json:"batchFailures,omitempty"`
	Timestamp         time.Time     `json:"timestamp"`
}
