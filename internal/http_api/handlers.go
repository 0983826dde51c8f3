package http_api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/poynt/relay/internal/models"
	"github.com/poynt/relay/internal/relay"
)

// OperationsResponse is the body of GET /api/loyalty/operations
type OperationsResponse struct {
	Success    bool                      `json:"success"`
	Operations []*models.OperationRecord `json:"operations"`
}

// gasless is a handler for the /api/loyalty/gasless endpoint.
// Every request is journaled, including the ones rejected before execution.
func (s *HTTPServer) gasless(c *gin.Context) {
	started := time.Now()
	ctx := c.Request.Context()

	var (
		req  models.OperationRequest
		resp *models.RelayResponse
		err  error
	)

	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		s.logger.Debugw("Invalid request body", "error", bindErr)
		err = &relay.ValidationError{Message: "Invalid request body: " + bindErr.Error()}
	} else {
		resp, err = s.relay.Execute(ctx, &req)
	}

	status := relay.HTTPStatus(err)
	if err != nil {
		if status >= http.StatusInternalServerError {
			s.logger.Errorw("Gasless operation failed", "type", req.Type, "signer", req.Signer, "error", err)
		} else {
			s.logger.Debugw("Gasless operation rejected", "type", req.Type, "signer", req.Signer, "error", err)
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": err.Error(),
		})
	} else {
		s.logger.Infow("Gasless operation relayed", "type", req.Type, "signer", req.Signer)
		c.JSON(status, resp.Body())
	}

	s.metrics.observe(req.Type, status, time.Since(started))
	s.relay.Record(ctx, &req, resp, status, err)
}

// operations is a handler for the /api/loyalty/operations endpoint.
// It returns the newest journal records of the given signer.
func (s *HTTPServer) operations(c *gin.Context) {
	signer := c.Query("signer")
	if signer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "signer is required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	records, err := s.relay.Operations(c.Request.Context(), signer, limit)
	if err != nil {
		status := relay.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Errorw("Failed to list operations", "signer", signer, "error", err)
			c.JSON(status, gin.H{"success": false, "message": "failed to list operations"})
			return
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}
	if records == nil {
		records = []*models.OperationRecord{}
	}

	c.JSON(http.StatusOK, OperationsResponse{
		Success:    true,
		Operations: records,
	})
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}

// ready fails when the journal database is unreachable
func (s *HTTPServer) ready(c *gin.Context) {
	if err := s.relay.Ready(c.Request.Context()); err != nil {
		s.logger.Warnw("Readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ready"})
}
