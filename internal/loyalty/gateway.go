package loyalty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/pkg/logger"
)

// Gateway talks to the loyalty protocol gateway, the service that wraps the
// on-chain loyalty program and returns unsigned transactions.
type Gateway struct {
	logger  *logger.Logger
	baseURL string
	client  *http.Client
}

// NewGateway creates a new Gateway client
func NewGateway(baseURL string, timeout time.Duration, logger *logger.Logger) *Gateway {
	return &Gateway{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *Gateway) CreateLoyaltyProgram(ctx context.Context, pctx models.ProtocolContext, params models.CreateProgramParams) (*models.ProtocolResult, error) {
	res, err := g.call(ctx, "/programs", pctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create loyalty program: %w", err)
	}
	return res, nil
}

func (g *Gateway) UpdateLoyaltyProgram(ctx context.Context, pctx models.ProtocolContext, params models.UpdateProgramParams) (*models.ProtocolResult, error) {
	res, err := g.call(ctx, "/programs/update", pctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to update loyalty program: %w", err)
	}
	return res, nil
}

func (g *Gateway) IssueLoyaltyPass(ctx context.Context, pctx models.ProtocolContext, params models.IssuePassParams) (*models.ProtocolResult, error) {
	res, err := g.call(ctx, "/passes", pctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to issue loyalty pass: %w", err)
	}
	return res, nil
}

func (g *Gateway) AwardLoyaltyPoints(ctx context.Context, pctx models.ProtocolContext, params models.AwardPointsParams) (*models.ProtocolResult, error) {
	res, err := g.call(ctx, "/points/award", pctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to award loyalty points: %w", err)
	}
	return res, nil
}

func (g *Gateway) RevokeLoyaltyPoints(ctx context.Context, pctx models.ProtocolContext, params models.RevokePointsParams) (*models.ProtocolResult, error) {
	res, err := g.call(ctx, "/points/revoke", pctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke loyalty points: %w", err)
	}
	return res, nil
}

func (g *Gateway) GiftLoyaltyPoints(ctx context.Context, pctx models.ProtocolContext, params models.GiftPointsParams) (*models.ProtocolResult, error) {
	res, err := g.call(ctx, "/points/gift", pctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to gift loyalty points: %w", err)
	}
	return res, nil
}

// call posts {context, ...params} and decodes the protocol result
func (g *Gateway) call(ctx context.Context, path string, pctx models.ProtocolContext, params interface{}) (*models.ProtocolResult, error) {
	body, err := requestBody(pctx, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	g.logger.Debugw("Calling loyalty gateway", "path", path, "program_authority", pctx.ProgramAuthority)
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, errorMessage(raw))
	}

	var result models.ProtocolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &result, nil
}

func requestBody(pctx models.ProtocolContext, params interface{}) ([]byte, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway params: %w", err)
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode gateway params: %w", err)
	}
	fields["context"] = pctx
	return json.Marshal(fields)
}

// errorMessage extracts a human readable message from an error body
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "empty response"
	}
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
