package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/poynt/relay/internal/loyalty"
	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

const (
	defaultMultiplier = 1.0
	defaultGiftReason = "Points gift"
	defaultPassName   = "Loyalty Pass"
)

// operation validates a request and resolves it against the loyalty protocol.
// validate never performs I/O; execute runs only after validate succeeded.
type operation struct {
	validate func(req *models.OperationRequest) error
	execute  func(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error)
}

// resolver is the dispatch table from operation type to operation.
type resolver struct {
	logger           *logger.Logger
	protocol         models.LoyaltyProtocol
	batchConcurrency int

	operations map[models.OperationType]operation
}

func newResolver(protocol models.LoyaltyProtocol, batchConcurrency int, logger *logger.Logger) *resolver {
	r := &resolver{
		logger:           logger,
		protocol:         protocol,
		batchConcurrency: batchConcurrency,
	}
	r.operations = map[models.OperationType]operation{
		models.CreateBusinessLoyaltyProgram: {validate: validateBusinessProgram, execute: r.createBusinessProgram},
		models.AwardBusinessCampaignPoints:  {validate: validateBusinessAward, execute: r.awardBusinessPoints},
		models.CreateProtocolLoyaltyProgram: {validate: validateProtocolProgram, execute: r.createProtocolProgram},
		models.AwardProtocolPoints:          {validate: validateAward, execute: r.awardPoints},
		models.UpdateLoyaltyProgram:         {validate: validateUpdate, execute: r.updateProgram},
		models.IssueLoyaltyPass:             {validate: validateIssue, execute: r.issuePass},
		models.AwardLoyaltyPoints:           {validate: validateAward, execute: r.awardPoints},
		models.RevokeLoyaltyPoints:          {validate: validatePointsChange, execute: r.revokePoints},
		models.GiftLoyaltyPoints:            {validate: validatePointsChange, execute: r.giftPoints},
		models.BatchAwardPoints:             {validate: validateBatchAward, execute: r.batchAwardPoints},
		models.BatchIssuePasses:             {validate: validateBatchIssue, execute: r.batchIssuePasses},
	}
	return r
}

func (r *resolver) lookup(t models.OperationType) (operation, error) {
	op, ok := r.operations[t]
	if !ok {
		return operation{}, ErrInvalidOperationType
	}
	return op, nil
}

// field is a required request field and whether the request carries it
type field struct {
	name    string
	present bool
}

func str(name, value string) field {
	return field{name: name, present: strings.TrimSpace(value) != ""}
}

func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return invalid("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// pointsField treats zero points as missing
func pointsField(points *int64) field {
	return field{name: "points", present: points != nil && *points != 0}
}

func validatePoints(points *int64) error {
	if points != nil && *points < 0 {
		return invalid("points must be a positive integer")
	}
	return nil
}

func validateMultiplier(multiplier *float64) error {
	if multiplier != nil && !(*multiplier > 0) {
		return invalid("multiplier must be greater than zero")
	}
	return nil
}

func multiplierOrDefault(multiplier *float64) float64 {
	if multiplier == nil {
		return defaultMultiplier
	}
	return *multiplier
}

func validateBusinessProgram(req *models.OperationRequest) error {
	if req.ProgramData == nil {
		return requireFields(field{name: "programData"})
	}
	pd := req.ProgramData
	if err := requireFields(
		str("programData.loyaltyProgramName", pd.LoyaltyProgramName),
		str("programData.organizationName", pd.OrganizationName),
	); err != nil {
		return err
	}
	if pd.CustomTierRequirements != nil {
		if err := loyalty.ValidateCampaignRequirements(pd.CustomTierRequirements); err != nil {
			return invalid("%s", err.Error())
		}
	}
	return nil
}

func validateProtocolProgram(req *models.OperationRequest) error {
	return requireFields(field{name: "programData", present: req.ProgramData != nil})
}

func validateBusinessAward(req *models.OperationRequest) error {
	return requireFields(str("passAddress", req.PassAddress))
}

func validateAward(req *models.OperationRequest) error {
	if err := requireFields(str("passAddress", req.PassAddress), str("action", req.Action)); err != nil {
		return err
	}
	return validateMultiplier(req.Multiplier)
}

func validateUpdate(req *models.OperationRequest) error {
	return requireFields(str("collectionAddress", req.CollectionAddress))
}

func validateIssue(req *models.OperationRequest) error {
	return requireFields(
		str("collectionAddress", req.CollectionAddress),
		str("recipient", req.Recipient),
		str("passName", req.PassName),
		str("passMetadataUri", req.PassMetadataURI),
	)
}

func validatePointsChange(req *models.OperationRequest) error {
	if err := validatePoints(req.Points); err != nil {
		return err
	}
	return requireFields(str("passAddress", req.PassAddress), pointsField(req.Points))
}

func validateBatchAward(req *models.OperationRequest) error {
	if err := requireFields(
		field{name: "passAddresses", present: !absent(req.PassAddresses)},
		str("action", req.Action),
	); err != nil {
		return err
	}
	if _, err := parsePassAddresses(req.PassAddresses); err != nil {
		return err
	}
	return validateMultiplier(req.Multiplier)
}

func validateBatchIssue(req *models.OperationRequest) error {
	if err := requireFields(
		str("collectionAddress", req.CollectionAddress),
		field{name: "recipients", present: !absent(req.Recipients)},
	); err != nil {
		return err
	}
	_, err := parseRecipients(req.Recipients)
	return err
}

func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// rawArray splits a JSON array into its elements, rejecting anything else and empty arrays
func rawArray(raw json.RawMessage, name string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, invalid("%s must be a non-empty array", name)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, invalid("%s must be a non-empty array", name)
	}
	if len(items) == 0 {
		return nil, invalid("%s must be a non-empty array", name)
	}
	return items, nil
}

func parsePassAddresses(raw json.RawMessage) ([]string, error) {
	items, err := rawArray(raw, "passAddresses")
	if err != nil {
		return nil, err
	}
	addresses := make([]string, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &addresses[i]); err != nil || strings.TrimSpace(addresses[i]) == "" {
			return nil, invalid("passAddresses[%d] must be a non-empty string", i)
		}
	}
	return addresses, nil
}

// parseRecipients accepts recipient descriptors or bare wallet addresses
func parseRecipients(raw json.RawMessage) ([]models.Recipient, error) {
	items, err := rawArray(raw, "recipients")
	if err != nil {
		return nil, err
	}
	recipients := make([]models.Recipient, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			err = json.Unmarshal(item, &recipients[i].Address)
		} else {
			err = json.Unmarshal(item, &recipients[i])
		}
		if err != nil || strings.TrimSpace(recipients[i].Address) == "" {
			return nil, invalid("recipients[%d] must have an address", i)
		}
	}
	return recipients, nil
}

func single(result *models.ProtocolResult, err error) (*models.RelayResponse, error) {
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &models.ProtocolResult{}
	}
	return &models.RelayResponse{Result: result}, nil
}

func (r *resolver) createBusinessProgram(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	pd := req.ProgramData
	return single(r.protocol.CreateLoyaltyProgram(ctx, pctx, models.CreateProgramParams{
		LoyaltyProgramName: pd.LoyaltyProgramName,
		OrganizationName:   pd.OrganizationName,
		MetadataURI:        pd.MetadataURI,
		BrandColor:         pd.BrandColor,
		Tiers:              loyalty.BusinessTiers(pd.CustomTierRequirements),
		PointsPerAction:    loyalty.BusinessPointsPerAction(),
	}))
}

func (r *resolver) createProtocolProgram(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	pd := req.ProgramData
	tiers := pd.Tiers
	if len(tiers) == 0 {
		tiers = loyalty.ProtocolTiers()
	}
	pointsPerAction := pd.PointsPerAction
	if len(pointsPerAction) == 0 {
		pointsPerAction = loyalty.ProtocolPointsPerAction()
	}
	return single(r.protocol.CreateLoyaltyProgram(ctx, pctx, models.CreateProgramParams{
		LoyaltyProgramName: pd.LoyaltyProgramName,
		OrganizationName:   pd.OrganizationName,
		MetadataURI:        pd.MetadataURI,
		BrandColor:         pd.BrandColor,
		Tiers:              tiers,
		PointsPerAction:    pointsPerAction,
	}))
}

func (r *resolver) awardBusinessPoints(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	return single(r.protocol.AwardLoyaltyPoints(ctx, pctx, models.AwardPointsParams{
		PassAddress: req.PassAddress,
		Action:      loyalty.CampaignCompletionAction,
		Multiplier:  defaultMultiplier,
	}))
}

func (r *resolver) awardPoints(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	return single(r.protocol.AwardLoyaltyPoints(ctx, pctx, models.AwardPointsParams{
		PassAddress: req.PassAddress,
		Action:      req.Action,
		Multiplier:  multiplierOrDefault(req.Multiplier),
	}))
}

func (r *resolver) updateProgram(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	return single(r.protocol.UpdateLoyaltyProgram(ctx, pctx, models.UpdateProgramParams{
		CollectionAddress:  req.CollectionAddress,
		NewPointsPerAction: req.NewPointsPerAction,
		NewTiers:           req.NewTiers,
	}))
}

func (r *resolver) issuePass(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	return single(r.protocol.IssueLoyaltyPass(ctx, pctx, models.IssuePassParams{
		CollectionAddress: req.CollectionAddress,
		Recipient:         req.Recipient,
		PassName:          req.PassName,
		PassMetadataURI:   req.PassMetadataURI,
	}))
}

func (r *resolver) revokePoints(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	return single(r.protocol.RevokeLoyaltyPoints(ctx, pctx, models.RevokePointsParams{
		PassAddress: req.PassAddress,
		Points:      *req.Points,
	}))
}

func (r *resolver) giftPoints(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultGiftReason
	}
	return single(r.protocol.GiftLoyaltyPoints(ctx, pctx, models.GiftPointsParams{
		PassAddress: req.PassAddress,
		Points:      *req.Points,
		Action:      reason,
	}))
}

func (r *resolver) batchAwardPoints(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	addresses, err := parsePassAddresses(req.PassAddresses)
	if err != nil {
		return nil, err
	}
	multiplier := multiplierOrDefault(req.Multiplier)

	batch := runBatch(ctx, r.batchConcurrency, addresses,
		func(address string) string { return address },
		func(ctx context.Context, address string) (*models.ProtocolResult, error) {
			return r.protocol.AwardLoyaltyPoints(ctx, pctx, models.AwardPointsParams{
				PassAddress: address,
				Action:      req.Action,
				Multiplier:  multiplier,
			})
		},
	)
	return &models.RelayResponse{Batch: batch}, nil
}

func (r *resolver) batchIssuePasses(ctx context.Context, pctx models.ProtocolContext, req *models.OperationRequest) (*models.RelayResponse, error) {
	recipients, err := parseRecipients(req.Recipients)
	if err != nil {
		return nil, err
	}

	batch := runBatch(ctx, r.batchConcurrency, recipients,
		func(recipient models.Recipient) string { return recipient.Address },
		func(ctx context.Context, recipient models.Recipient) (*models.ProtocolResult, error) {
			return r.protocol.IssueLoyaltyPass(ctx, pctx, models.IssuePassParams{
				CollectionAddress: req.CollectionAddress,
				Recipient:         recipient.Address,
				PassName:          firstNonEmpty(recipient.PassName, req.PassName, defaultPassName),
				PassMetadataURI:   firstNonEmpty(recipient.PassMetadataURI, req.PassMetadataURI),
			})
		},
	)
	return &models.RelayResponse{Batch: batch}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
