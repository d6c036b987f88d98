package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"musa-backend-go/internal/geocode"
)

// GeocodeHandler proxies reverse geocoding for the address auto-fill.
type GeocodeHandler struct {
	client *geocode.Client
}

func NewGeocodeHandler(client *geocode.Client) *GeocodeHandler {
	return &GeocodeHandler{client: client}
}

// Reverse handles GET /geocode/reverse?lat=&lng=. Upstream failures map to
// 502 so the client knows to fall back to manual address entry.
func (h *GeocodeHandler) Reverse(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng query parameters are required"})
		return
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat/lng out of range"})
		return
	}

	address, err := h.client.Reverse(c.Request.Context(), lat, lng)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Reverse geocoding unavailable; enter the address manually",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, address)
}
