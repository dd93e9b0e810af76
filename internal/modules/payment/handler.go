package payment

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tripdesk/internal/pkg/response"
)

type Handler struct {
	service         *Service
	frontendBaseURL string
}

func NewHandler(service *Service, frontendBaseURL string) *Handler {
	return &Handler{service: service, frontendBaseURL: frontendBaseURL}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/drafts/:id/payment", h.InitiatePayment)
}

// RegisterRedirectRoutes mounts the browser return targets. They carry no
// trust signal of their own: both only bounce the customer back to the
// frontend status page, which starts polling.
func (h *Handler) RegisterRedirectRoutes(rg *gin.RouterGroup) {
	rg.GET("/payment/return", h.Return)
	rg.GET("/payment/cancel", h.Cancel)
}

func (h *Handler) InitiatePayment(c *gin.Context) {
	res, err := h.service.InitiatePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Draft not found")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Draft is missing required traveler or contact details")
		case errors.Is(err, ErrInvalidState):
			response.Error(c, http.StatusConflict, "INVALID_STATE", "Draft is not ready for payment")
		case errors.Is(err, ErrProviderUnavailable):
			response.Error(c, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "Payment provider is unavailable, please try again")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to initiate payment")
		}
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Return(c *gin.Context) {
	h.redirectToStatus(c, "return")
}

func (h *Handler) Cancel(c *gin.Context) {
	h.redirectToStatus(c, "cancel")
}

func (h *Handler) redirectToStatus(c *gin.Context, origin string) {
	draftID := c.Query("draft_id")
	if draftID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing draft_id")
		return
	}
	q := url.Values{}
	q.Set("draft_id", draftID)
	q.Set("origin", origin)
	c.Redirect(http.StatusFound, h.frontendBaseURL+"/booking/status?"+q.Encode())
}
