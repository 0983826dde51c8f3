package models

// EstimatedFeeLamports is the fee of a single-signature transaction.
const EstimatedFeeLamports uint64 = 5000

// BatchItem is the outcome for one target of a batch operation.
type BatchItem struct {
	Target  string          `json:"target"`
	Success bool            `json:"success"`
	Result  *ProtocolResult `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BatchResult aggregates a batch. len(Results) always equals the number of input targets.
type BatchResult struct {
	Success        bool        `json:"success"`
	Results        []BatchItem `json:"results"`
	TotalProcessed int         `json:"totalProcessed"`
	SuccessCount   int         `json:"successCount"`
	FailureCount   int         `json:"failureCount"`
}

// FinalizedTransaction is the response for operations whose protocol result embedded a transaction.
type FinalizedTransaction struct {
	Success bool `json:"success"`
	// SerializedTransaction is base58; the fee payer signature is present, the user's is not.
	SerializedTransaction string  `json:"serializedTransaction"`
	Message               string  `json:"message"`
	Signature             *string `json:"signature"`
	CollectionAddress     *string `json:"collectionAddress"`
	PassAddress           *string `json:"passAddress"`
	EstimatedFee          uint64  `json:"estimatedFee"`
	Gasless               bool    `json:"gasless"`

	// LastValidBlockHeight is used by the journal only
	LastValidBlockHeight uint64 `json:"-"`
}

// RelayResponse is exactly one of Finalized, Batch or Result.
type RelayResponse struct {
	Finalized *FinalizedTransaction
	Batch     *BatchResult
	Result    *ProtocolResult
}

// Body returns the JSON body sent to the client.
func (r *RelayResponse) Body() interface{} {
	switch {
	case r.Finalized != nil:
		return r.Finalized
	case r.Batch != nil:
		return r.Batch
	default:
		body := map[string]interface{}{}
		if r.Result != nil {
			body = r.Result.AsMap()
		}
		body["success"] = true
		body["gasless"] = true
		return body
	}
}
