package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/core"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/models"
)

// EstateHandler serves the estate registry endpoints.
type EstateHandler struct {
	estateService core.EstateService
}

func NewEstateHandler(es core.EstateService) *EstateHandler {
	return &EstateHandler{estateService: es}
}

// Create handles POST /estates.
func (h *EstateHandler) Create(c *gin.Context) {
	var req models.CreateEstateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	estate, err := h.estateService.CreateEstate(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, estate)
}

// List handles GET /estates. Token-only: registration needs this list before
// the caller has an approved profile.
func (h *EstateHandler) List(c *gin.Context) {
	estates, err := h.estateService.ListEstates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estates)
}

// SetLock handles PUT /estates/:estateId/lock.
func (h *EstateHandler) SetLock(c *gin.Context) {
	var req models.SetEstateLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	estate, err := h.estateService.SetLock(c.Request.Context(), c.Param("estateId"), *req.IsLocked, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estate)
}
