package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/server/http/dto"
)

// PartnerHandler serves delivery partner profiles.
type PartnerHandler struct {
	facade PartnerFacade
}

func NewPartnerHandler(facade PartnerFacade) *PartnerHandler {
	return &PartnerHandler{facade: facade}
}

// List handles GET /api/partners.
func (h *PartnerHandler) List(c *gin.Context) {
	available, _ := strconv.ParseBool(c.Query("available"))
	partners, err := h.facade.ListPartners(c.Request.Context(), CurrentIdentity(c), model.PartnerFilter{AvailableOnly: available})
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]model.PartnerView, 0, len(partners))
	for i := range partners {
		views = append(views, partners[i].View())
	}
	c.JSON(http.StatusOK, views)
}

// Me handles GET /api/partners/me.
func (h *PartnerHandler) Me(c *gin.Context) {
	partner, err := h.facade.GetProfile(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner.View())
}

// ToggleAvailability handles PUT /api/partners/availability.
func (h *PartnerHandler) ToggleAvailability(c *gin.Context) {
	partner, err := h.facade.ToggleAvailability(c.Request.Context(), CurrentIdentity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner.View())
}

// UpdateLocation handles PUT /api/partners/location.
func (h *PartnerHandler) UpdateLocation(c *gin.Context) {
	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid location payload")
		return
	}

	partner, err := h.facade.UpdateLocation(c.Request.Context(), CurrentIdentity(c), req.Lat, req.Lng)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, partner.View())
}
