package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/core"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/models"
)

// AccessCodeHandler serves visitor code endpoints for residents and guards.
type AccessCodeHandler struct {
	accessCodeService core.AccessCodeService
	activityLimit     int
}

func NewAccessCodeHandler(acs core.AccessCodeService, activityLimit int) *AccessCodeHandler {
	return &AccessCodeHandler{accessCodeService: acs, activityLimit: activityLimit}
}

// Create handles POST /access-codes.
func (h *AccessCodeHandler) Create(c *gin.Context) {
	var req models.CreateAccessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	code, err := h.accessCodeService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

// List handles GET /access-codes, scoped to the caller's own codes.
func (h *AccessCodeHandler) List(c *gin.Context) {
	codes, err := h.accessCodeService.ListByResident(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, codes)
}

// Deactivate handles POST /access-codes/:codeId/deactivate.
func (h *AccessCodeHandler) Deactivate(c *gin.Context) {
	err := h.accessCodeService.Deactivate(c.Request.Context(), c.Param("codeId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Access code deactivated"})
}

// Verify handles POST /verify, the guard-side gate check. Denials are a
// valid 200 response with isValid=false, not an error.
func (h *AccessCodeHandler) Verify(c *gin.Context) {
	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	result, err := h.accessCodeService.Verify(c.Request.Context(), middleware.UserID(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Activity handles GET /guard/activity.
func (h *AccessCodeHandler) Activity(c *gin.Context) {
	entries, err := h.accessCodeService.RecentActivity(c.Request.Context(), middleware.UserID(c), h.activityLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Stats handles GET /guard/stats.
func (h *AccessCodeHandler) Stats(c *gin.Context) {
	stats, err := h.accessCodeService.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
