package models

// Operation statuses stored in the journal
const (
	StatusSucceeded = "succeeded"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)

// OperationRecord is one journal row per relayed request. Rows are append-only.
type OperationRecord struct {
	// ID is the unique identifier of the relayed request.
	ID string `json:"id" gorm:"column:id;primaryKey;size:36"`
	// Type is the requested operation type, as sent by the client.
	Type string `json:"type" gorm:"column:type;index;size:64"`
	// Signer is the wallet that initiated the request.
	Signer string `json:"signer" gorm:"column:signer;index;size:64"`
	// Status is one of succeeded, rejected (4xx) or failed (5xx).
	Status string `json:"status" gorm:"column:status;index;size:16"`
	// HTTPStatus is the status code returned to the client.
	HTTPStatus int `json:"http_status" gorm:"column:http_status"`
	// Message is the error message for rejected and failed requests.
	Message string `json:"message,omitempty" gorm:"column:message"`
	// CollectionAddress is the loyalty program touched by the operation, if known.
	CollectionAddress string `json:"collection_address,omitempty" gorm:"column:collection_address;size:64"`
	// PassAddress is the loyalty pass touched by the operation, if known.
	PassAddress string `json:"pass_address,omitempty" gorm:"column:pass_address;size:64"`
	// Gasless is set when a partially signed transaction was returned.
	Gasless bool `json:"gasless" gorm:"column:gasless"`
	// LastValidBlockHeight bounds the lifetime of the returned transaction.
	LastValidBlockHeight uint64 `json:"last_valid_block_height,omitempty" gorm:"column:last_valid_block_height"`
	BatchTotal           int    `json:"batch_total,omitempty" gorm:"column:batch_total"`
	BatchFailures        int    `json:"batch_failures,omitempty" gorm:"column:batch_failures"`
	// CreatedAt is the unix timestamp (milliseconds) of the request.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at;index"`
}

// TableName specifies the table name for GORM
func (OperationRecord) TableName() string {
	return "loyalty_operations"
}
