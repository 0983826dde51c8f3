package models

import "encoding/json"

// OperationType identifies which loyalty protocol action a request resolves to.
type OperationType string

const (
	CreateBusinessLoyaltyProgram OperationType = "CREATE_BUSINESS_LOYALTY_PROGRAM"
	AwardBusinessCampaignPoints  OperationType = "AWARD_BUSINESS_CAMPAIGN_POINTS"
	CreateProtocolLoyaltyProgram OperationType = "CREATE_PROTOCOL_LOYALTY_PROGRAM"
	AwardProtocolPoints          OperationType = "AWARD_PROTOCOL_POINTS"
	UpdateLoyaltyProgram         OperationType = "UPDATE_LOYALTY_PROGRAM"
	IssueLoyaltyPass             OperationType = "ISSUE_LOYALTY_PASS"
	AwardLoyaltyPoints           OperationType = "AWARD_LOYALTY_POINTS"
	RevokeLoyaltyPoints          OperationType = "REVOKE_LOYALTY_POINTS"
	GiftLoyaltyPoints            OperationType = "GIFT_LOYALTY_POINTS"
	BatchAwardPoints             OperationType = "BATCH_AWARD_POINTS"
	BatchIssuePasses             OperationType = "BATCH_ISSUE_PASSES"
)

// OperationTypes lists every supported operation. The relay dispatch table must cover all of them.
var OperationTypes = []OperationType{
	CreateBusinessLoyaltyProgram,
	AwardBusinessCampaignPoints,
	CreateProtocolLoyaltyProgram,
	AwardProtocolPoints,
	UpdateLoyaltyProgram,
	IssueLoyaltyPass,
	AwardLoyaltyPoints,
	RevokeLoyaltyPoints,
	GiftLoyaltyPoints,
	BatchAwardPoints,
	BatchIssuePasses,
}

// IsBatch reports whether the operation fans out over many targets.
func (t OperationType) IsBatch() bool {
	return t == BatchAwardPoints || t == BatchIssuePasses
}

// OperationRequest is the JSON body of POST /api/loyalty/gasless.
type OperationRequest struct {
	// Type selects the operation
	Type OperationType `json:"type"`
	// Signer is the wallet of the initiating user. It is the program authority, not the fee payer.
	Signer string `json:"signer,omitempty"`

	ProgramData       *ProgramData `json:"programData,omitempty"`
	CollectionAddress string       `json:"collectionAddress,omitempty"`
	PassAddress       string       `json:"passAddress,omitempty"`
	Recipient         string       `json:"recipient,omitempty"`
	PassName          string       `json:"passName,omitempty"`
	PassMetadataURI   string       `json:"passMetadataUri,omitempty"`

	// Points and Multiplier are pointers so that an absent value differs from zero.
	Points     *int64   `json:"points,omitempty"`
	Action     string   `json:"action,omitempty"`
	Multiplier *float64 `json:"multiplier,omitempty"`
	Reason     string   `json:"reason,omitempty"`

	NewPointsPerAction map[string]int64 `json:"newPointsPerAction,omitempty"`
	NewTiers           []Tier           `json:"newTiers,omitempty"`

	// Batch targets stay raw so that "present but not an array" can be rejected explicitly.
	PassAddresses json.RawMessage `json:"passAddresses,omitempty"`
	Recipients    json.RawMessage `json:"recipients,omitempty"`
}

// ProgramData describes a loyalty program to create.
type ProgramData struct {
	LoyaltyProgramName string `json:"loyaltyProgramName"`
	OrganizationName   string `json:"organizationName"`
	MetadataURI        string `json:"metadataUri,omitempty"`
	BrandColor         string `json:"brandColor,omitempty"`

	// CustomTierRequirements is the number of completed campaigns per business tier.
	CustomTierRequirements []int64 `json:"customTierRequirements,omitempty"`

	// Tiers and PointsPerAction override the protocol template.
	Tiers           []Tier           `json:"tiers,omitempty"`
	PointsPerAction map[string]int64 `json:"pointsPerAction,omitempty"`
}

// Tier is a threshold level within a loyalty program.
type Tier struct {
	Name       string   `json:"name"`
	XPRequired int64    `json:"xpRequired"`
	Rewards    []string `json:"rewards"`
}

// Recipient is a single target of BATCH_ISSUE_PASSES.
type Recipient struct {
	Address         string `json:"address"`
	PassName        string `json:"passName,omitempty"`
	PassMetadataURI string `json:"passMetadataUri,omitempty"`
}
