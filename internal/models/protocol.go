package models

import (
	"bytes"
	"context"
	"encoding/json"
)

// LoyaltyProtocol is the on-chain loyalty protocol collaborator.
// Each call either returns a raw result or a result that embeds an unsigned transaction.
type LoyaltyProtocol interface {
	CreateLoyaltyProgram(ctx context.Context, pctx ProtocolContext, params CreateProgramParams) (*ProtocolResult, error)
	UpdateLoyaltyProgram(ctx context.Context, pctx ProtocolContext, params UpdateProgramParams) (*ProtocolResult, error)
	IssueLoyaltyPass(ctx context.Context, pctx ProtocolContext, params IssuePassParams) (*ProtocolResult, error)
	AwardLoyaltyPoints(ctx context.Context, pctx ProtocolContext, params AwardPointsParams) (*ProtocolResult, error)
	RevokeLoyaltyPoints(ctx context.Context, pctx ProtocolContext, params RevokePointsParams) (*ProtocolResult, error)
	GiftLoyaltyPoints(ctx context.Context, pctx ProtocolContext, params GiftPointsParams) (*ProtocolResult, error)
}

// ProtocolContext carries the authorities every protocol call runs under.
type ProtocolContext struct {
	FeePayer          string `json:"feePayer"`
	ProgramAuthority  string `json:"programAuthority"`
	UpdateAuthority   string `json:"updateAuthority"`
	CollectionAddress string `json:"collectionAddress,omitempty"`
}

type CreateProgramParams struct {
	LoyaltyProgramName string           `json:"loyaltyProgramName"`
	OrganizationName   string           `json:"organizationName"`
	MetadataURI        string           `json:"metadataUri,omitempty"`
	BrandColor         string           `json:"brandColor,omitempty"`
	Tiers              []Tier           `json:"tiers"`
	PointsPerAction    map[string]int64 `json:"pointsPerAction"`
}

type UpdateProgramParams struct {
	CollectionAddress  string           `json:"collectionAddress"`
	NewPointsPerAction map[string]int64 `json:"newPointsPerAction,omitempty"`
	NewTiers           []Tier           `json:"newTiers,omitempty"`
}

type IssuePassParams struct {
	CollectionAddress string `json:"collectionAddress"`
	Recipient         string `json:"recipient"`
	PassName          string `json:"passName"`
	PassMetadataURI   string `json:"passMetadataUri"`
}

type AwardPointsParams struct {
	PassAddress string  `json:"passAddress"`
	Action      string  `json:"action"`
	Multiplier  float64 `json:"multiplier"`
}

type RevokePointsParams struct {
	PassAddress string `json:"passAddress"`
	Points      int64  `json:"pointsToRevoke"`
}

type GiftPointsParams struct {
	PassAddress string `json:"passAddress"`
	Points      int64  `json:"pointsToGift"`
	// Action is recorded by the protocol as the reason of the gift
	Action string `json:"action"`
}

// ProtocolResult is whatever a protocol call returned.
// Known fields are lifted out; Fields keeps the complete payload for pass-through responses.
type ProtocolResult struct {
	// Transaction is the base64 encoded unsigned transaction, if the call produced one
	Transaction       string
	Signature         string
	CollectionAddress string
	PassAddress       string
	Fields            map[string]interface{}
}

// UnmarshalJSON keeps numbers as json.Number so large integers pass through unchanged.
func (r *ProtocolResult) UnmarshalJSON(data []byte) error {
	fields := map[string]interface{}{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&fields); err != nil {
		return err
	}
	r.Fields = fields
	r.Transaction, _ = fields["transaction"].(string)
	r.Signature, _ = fields["signature"].(string)
	r.CollectionAddress, _ = fields["collectionAddress"].(string)
	r.PassAddress, _ = fields["passAddress"].(string)
	return nil
}

func (r ProtocolResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}

// HasTransaction reports whether the result embeds a transaction that needs finalizing.
func (r *ProtocolResult) HasTransaction() bool {
	return r != nil && r.Transaction != ""
}

// AsMap returns a fresh map with every field of the result.
func (r ProtocolResult) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	setIfNotEmpty(out, "transaction", r.Transaction)
	setIfNotEmpty(out, "signature", r.Signature)
	setIfNotEmpty(out, "collectionAddress", r.CollectionAddress)
	setIfNotEmpty(out, "passAddress", r.PassAddress)
	return out
}

func setIfNotEmpty(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}
