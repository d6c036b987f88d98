package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/core"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/models"
)

// DeviceHandler serves the device authorization flow.
type DeviceHandler struct {
	deviceService core.DeviceService
}

func NewDeviceHandler(ds core.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: ds}
}

// Check handles POST /devices/check, the fingerprint check-in at login.
func (h *DeviceHandler) Check(c *gin.Context) {
	var req models.DeviceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	result, err := h.deviceService.GetOrCreateDevice(c.Request.Context(),
		middleware.UserID(c), req.Fingerprint, req.UserAgent, req.Platform, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// List handles GET /devices, the caller's own devices.
func (h *DeviceHandler) List(c *gin.Context) {
	devices, err := h.deviceService.ListDevices(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

// RequestApproval handles POST /devices/:deviceId/request-approval. The token
// itself travels by email only; the response just acknowledges the send.
func (h *DeviceHandler) RequestApproval(c *gin.Context) {
	_, err := h.deviceService.CreateApprovalToken(c.Request.Context(), c.Param("deviceId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Approval link sent"})
}

// Approve handles GET /devices/approve?token=. This is the emailed link, so
// it is the one unauthenticated device route: the token is the credential.
func (h *DeviceHandler) Approve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "token query parameter is required"})
		return
	}

	device, err := h.deviceService.ApproveDeviceWithToken(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Device authorized", Data: device})
}

// Revoke handles POST /devices/:deviceId/revoke.
func (h *DeviceHandler) Revoke(c *gin.Context) {
	err := h.deviceService.RevokeDevice(c.Request.Context(), c.Param("deviceId"), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Device revoked"})
}
