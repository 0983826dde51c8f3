package models

import "context"

type Repository interface {
	SaveOperation(ctx context.Context, record *OperationRecord) error
	GetOperation(ctx context.Context, id string) (*OperationRecord, error)
	GetOperationsBySigner(ctx context.Context, signer string, limit int) ([]*OperationRecord, error)

	Ping(ctx context.Context) error
	Close() error
}
