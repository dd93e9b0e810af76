package confirmation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripdesk/internal/domain"
	"tripdesk/internal/pkg/response"
)

type Handler struct {
	service  *Service
	verifier signatureVerifier
}

func NewHandler(service *Service, verifier signatureVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

// RegisterWebhookRoutes mounts the provider-facing callback endpoint. It is
// authenticated by the payload signature, not by a wizard token.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/bnpl", h.ProviderCallback)
}

// RegisterRoutes mounts the client poll endpoint behind the wizard token.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/drafts/:id/status", h.PollStatus)
}

func (h *Handler) ProviderCallback(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unreadable body")
		return
	}

	if !h.verifier.VerifyWebhookSignature(raw, c.GetHeader("X-Bnpl-Signature")) {
		response.Error(c, http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature mismatch")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed webhook payload")
		return
	}

	// The provider sends outcomes upper-cased (APPROVED, DECLINED, CANCELLED).
	res, err := h.service.HandleProviderCallback(c.Request.Context(), domain.ProviderSignal{
		SessionID: payload.SessionID,
		EventID:   payload.EventID,
		Outcome:   domain.SignalOutcome(strings.ToLower(payload.Outcome)),
	}, string(raw))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignal):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid confirmation signal")
		case errors.Is(err, ErrUnknownSession):
			response.Error(c, http.StatusNotFound, "UNKNOWN_SESSION", "No draft for provider session")
		case errors.Is(err, ErrDraftExpired):
			// 410 tells the provider to stop re-delivering: the hold is gone
			// and this draft can never be promoted.
			response.Error(c, http.StatusGone, "DRAFT_EXPIRED", "Draft expired before confirmation")
		default:
			// 5xx keeps the provider's at-least-once retry alive.
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Confirmation processing failed")
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

func (h *Handler) PollStatus(c *gin.Context) {
	res, err := h.service.PollStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Draft not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read status")
		return
	}
	response.Success(c, http.StatusOK, res)
}
