package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/core"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/models"
)

// HouseholdHandler serves household and invitation endpoints.
type HouseholdHandler struct {
	householdService core.HouseholdService
	inviteService    core.InviteService
}

func NewHouseholdHandler(hs core.HouseholdService, is core.InviteService) *HouseholdHandler {
	return &HouseholdHandler{householdService: hs, inviteService: is}
}

// Create handles POST /households.
func (h *HouseholdHandler) Create(c *gin.Context) {
	var req models.CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	household, err := h.householdService.CreateHousehold(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, household)
}

// Get handles GET /households/:householdId.
func (h *HouseholdHandler) Get(c *gin.Context) {
	household, err := h.householdService.GetByID(c.Request.Context(), c.Param("householdId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, household)
}

// UpdateAddress handles PUT /households/:householdId/address.
func (h *HouseholdHandler) UpdateAddress(c *gin.Context) {
	var req models.UpdateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	household, err := h.householdService.UpdateAddress(c.Request.Context(), c.Param("householdId"), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, household)
}

// ListMembers handles GET /households/:householdId/members.
func (h *HouseholdHandler) ListMembers(c *gin.Context) {
	members, err := h.householdService.ListMembers(c.Request.Context(), c.Param("householdId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// RemoveMember handles DELETE /households/:householdId/members/:memberId.
func (h *HouseholdHandler) RemoveMember(c *gin.Context) {
	err := h.householdService.RemoveMember(c.Request.Context(), c.Param("householdId"), middleware.UserID(c), c.Param("memberId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Member removed"})
}

// CreateInvite handles POST /households/:householdId/invites.
func (h *HouseholdHandler) CreateInvite(c *gin.Context) {
	var req models.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	invite, err := h.inviteService.CreateInvite(c.Request.Context(), c.Param("householdId"), middleware.UserID(c), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invite)
}

// PendingInvites handles GET /invites/pending, keyed by the caller's token email.
func (h *HouseholdHandler) PendingInvites(c *gin.Context) {
	email := middleware.UserEmail(c)
	if email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Token carries no email claim"})
		return
	}
	invites, err := h.inviteService.GetPendingInvitationsByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invites)
}

// AcceptInvite handles POST /invites/:inviteId/accept.
func (h *HouseholdHandler) AcceptInvite(c *gin.Context) {
	household, err := h.inviteService.AcceptInvite(c.Request.Context(), c.Param("inviteId"), middleware.UserID(c), middleware.UserEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, household)
}

// RejectInvite handles POST /invites/:inviteId/reject.
func (h *HouseholdHandler) RejectInvite(c *gin.Context) {
	err := h.inviteService.RejectInvite(c.Request.Context(), c.Param("inviteId"), middleware.UserID(c), middleware.UserEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Invitation rejected"})
}
