package wizard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the draft-creation endpoint; everything else
// requires the wizard token and goes through RegisterRoutes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/drafts", h.StartDraft)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/drafts/:id", h.GetDraft)
	rg.POST("/drafts/:id/steps/selection", h.SaveSelection)
	rg.POST("/drafts/:id/steps/travelers", h.SaveTravelers)
	rg.POST("/drafts/:id/steps/requests", h.SaveRequests)
}

func (h *Handler) StartDraft(c *gin.Context) {
	var req StartDraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}

	d, token, err := h.service.StartDraft(c.Request.Context(), req.Selection)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, StartDraftResponse{
		DraftID:     d.ID,
		WizardToken: token,
		Status:      string(d.Status),
	})
}

func (h *Handler) GetDraft(c *gin.Context) {
	d, err := h.service.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft": d})
}

func (h *Handler) SaveSelection(c *gin.Context) {
	var payload SelectionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	d, err := h.service.SaveSelection(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft_id": d.ID, "status": d.Status})
}

func (h *Handler) SaveTravelers(c *gin.Context) {
	var payload TravelersPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	d, err := h.service.SaveTravelers(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft_id": d.ID, "status": d.Status})
}

func (h *Handler) SaveRequests(c *gin.Context) {
	var payload RequestsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	d, err := h.service.SaveRequests(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"draft_id": d.ID, "status": d.Status})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or incomplete step data")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Draft not found")
	case errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusConflict, "INVALID_STATE", "Draft can no longer be edited")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save step")
	}
}
