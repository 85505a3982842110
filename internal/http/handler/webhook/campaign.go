package webhook

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"legalbridge.app/bridge/internal/jira"
	"legalbridge.app/bridge/internal/payload"
	"legalbridge.app/bridge/internal/service"
)

// Machine-readable reason codes returned to the webhook sender. The sender
// always receives a definitive response; the code distinguishes "nothing
// needed doing" from "done" from "failed".
const (
	ReasonCompleted           = "Completed"
	ReasonNoTriggerMatch      = "NoTriggerMatch"
	ReasonDuplicateSuppressed = "DuplicateSuppressed"
	ReasonValidationError     = "ValidationError"
	ReasonTransientDispatch   = "TransientDispatchError"
	ReasonPermanentDispatch   = "PermanentDispatchError"
	ReasonInternalFault       = "InternalFault"
)

const tokenHeader = "X-Bridge-Token"

type CampaignWebhookHandler struct {
	dispatch service.DispatchService
	secret   string
}

// NewCampaignWebhookHandler builds the webhook endpoint handler. secret may
// be empty, in which case the shared-secret check is disabled.
func NewCampaignWebhookHandler(dispatch service.DispatchService, secret string) *CampaignWebhookHandler {
	return &CampaignWebhookHandler{dispatch: dispatch, secret: secret}
}

func (h *CampaignWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	if h.secret != "" {
		token := c.GetHeader(tokenHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing webhook token"})
			return
		}
		if token != h.secret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
			return
		}
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"reason": ReasonValidationError,
			"error":  "failed to read request body",
		})
		return
	}

	result, err := h.dispatch.Dispatch(ctx, body)
	if err != nil {
		h.renderError(c, err)
		return
	}

	switch result.Status {
	case service.StatusCompleted:
		slog.InfoContext(ctx, "campaign webhook processed",
			"record_id", result.RecordID, "ticket_key", result.Ticket.Key)
		c.JSON(http.StatusOK, gin.H{
			"reason":     ReasonCompleted,
			"record_id":  result.RecordID,
			"ticket_key": result.Ticket.Key,
			"ticket_url": result.Ticket.URL,
		})
	case service.StatusNoTrigger:
		c.JSON(http.StatusOK, gin.H{
			"reason":    ReasonNoTriggerMatch,
			"record_id": result.RecordID,
			"message":   "status did not match the trigger label",
		})
	case service.StatusDuplicate:
		c.JSON(http.StatusOK, gin.H{
			"reason":    ReasonDuplicateSuppressed,
			"record_id": result.RecordID,
			"message":   "a ticket was already created for this record",
		})
	default:
		// Unreachable unless a new status is added without a response mapping.
		c.JSON(http.StatusInternalServerError, gin.H{"reason": ReasonInternalFault})
	}
}

func (h *CampaignWebhookHandler) renderError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var validationErr *payload.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"reason": ReasonValidationError,
			"field":  validationErr.Field,
			"error":  validationErr.Error(),
		})
		return
	}

	var dispatchErr *jira.DispatchError
	if errors.As(err, &dispatchErr) {
		if dispatchErr.Transient {
			slog.ErrorContext(ctx, "ticket creation failed after retries", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"reason": ReasonTransientDispatch,
				"error":  "ticket tracker unavailable, delivery may be retried",
			})
			return
		}
		// Permanent rejections imply misconfiguration; worth paging over.
		slog.ErrorContext(ctx, "ticket tracker rejected the request", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"reason": ReasonPermanentDispatch,
			"error":  "ticket tracker rejected the request",
		})
		return
	}

	slog.ErrorContext(ctx, "unexpected dispatch failure", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"reason": ReasonInternalFault,
		"error":  "internal error",
	})
}
