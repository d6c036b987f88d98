package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/core"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/models"
)

// UserHandler serves profile and approval endpoints.
type UserHandler struct {
	userService     core.UserService
	securityService core.SecurityService
	logLimit        int
}

func NewUserHandler(us core.UserService, ss core.SecurityService, logLimit int) *UserHandler {
	return &UserHandler{userService: us, securityService: ss, logLimit: logLimit}
}

// InitializeProfile handles POST /users/initialize. Idempotent: repeated
// calls return the existing profile with 200 instead of 201.
func (h *UserHandler) InitializeProfile(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	user, created, err := h.userService.InitializeProfile(c.Request.Context(), middleware.UserID(c), middleware.UserEmail(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// MySecurityLogs handles GET /users/me/security-logs.
func (h *UserHandler) MySecurityLogs(c *gin.Context) {
	logs, err := h.securityService.RecentByUser(c.Request.Context(), middleware.UserID(c), h.logLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// ListPending handles GET /users/pending.
func (h *UserHandler) ListPending(c *gin.Context) {
	pending, err := h.userService.ListPending(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

// ApproveUser handles POST /users/:uid/approve.
func (h *UserHandler) ApproveUser(c *gin.Context) {
	var req models.ApproveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	user, err := h.userService.ApproveUserWithEstate(c.Request.Context(), c.Param("uid"), req.EstateID, middleware.UserID(c), req.IsHouseholdHead)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// RejectUser handles POST /users/:uid/reject.
func (h *UserHandler) RejectUser(c *gin.Context) {
	var req models.RejectUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	user, err := h.userService.RejectUser(c.Request.Context(), c.Param("uid"), middleware.UserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// BatchApprove handles POST /users/batch-approve. Always 200; the body
// reports per-user outcomes.
func (h *UserHandler) BatchApprove(c *gin.Context) {
	var req models.BatchApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userIds cannot be empty"})
		return
	}
	result := h.userService.BatchApprove(c.Request.Context(), req.UserIDs, req.EstateID, middleware.UserID(c))
	c.JSON(http.StatusOK, result)
}

// BatchReject handles POST /users/batch-reject.
func (h *UserHandler) BatchReject(c *gin.Context) {
	var req models.BatchRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}
	if len(req.UserIDs) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "userIds cannot be empty"})
		return
	}
	result := h.userService.BatchReject(c.Request.Context(), req.UserIDs, middleware.UserID(c), req.Reason)
	c.JSON(http.StatusOK, result)
}

// ChangeRole handles PUT /users/:uid/role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req models.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), c.Param("uid"), req.Role, req.EstateID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
