package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/alertabh/internal/service"
)

// @Summary List notifications
// @Description Newest first, with relative time labels
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} NotificationsResponse
// @Router /notifications [get]
func (h *Handler) listNotifications(c *gin.Context) {
	notes := h.app.ListNotifications(c.Request.Context())
	unread := 0
	for _, n := range notes {
		if !n.Read {
			unread++
		}
	}
	c.JSON(http.StatusOK, NotificationsResponse{Unread: unread, Notifications: notes})
}

// @Summary Mark a notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *Handler) markNotificationRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "markNotificationRead").WithField("id", id)
	if !handleMutation(c, log, h.app.MarkNotificationRead(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Mark all notifications as read
// @Tags Notifications
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /notifications/read-all [post]
func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	log := h.logger.WithField("method", "markAllNotificationsRead")
	if !handleMutation(c, log, h.app.MarkAllNotificationsRead(c.Request.Context())) {
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Delete a notification
// @Tags Notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id} [delete]
func (h *Handler) deleteNotification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteNotification").WithField("id", id)
	if !handleMutation(c, log, h.app.DeleteNotification(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get the profile
// @Description User, points, level, ranking and badges
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Profile
// @Router /profile [get]
func (h *Handler) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Profile(c.Request.Context(), sessionFrom(c)))
}

// @Summary List achievements
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.AchievementView
// @Router /achievements [get]
func (h *Handler) listAchievements(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Achievements(c.Request.Context()))
}

// @Summary List themes
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.ThemeView
// @Router /themes [get]
func (h *Handler) listThemes(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Themes(c.Request.Context()))
}

// @Summary Select a theme
// @Tags Settings
// @Accept json
// @Security BearerAuth
// @Param theme body ThemeRequest true "Theme ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Unknown theme"
// @Failure 403 {object} map[string]string "Premium required"
// @Router /settings/theme [put]
func (h *Handler) selectTheme(c *gin.Context) {
	var input ThemeRequest
	log := h.logger.WithField("method", "selectTheme")
	if !h.bind(c, log, &input) {
		return
	}
	if !handleMutation(c, log, h.app.SelectTheme(c.Request.Context(), input.Theme)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get settings
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Settings
// @Router /settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Settings(c.Request.Context()))
}

// @Summary Replace settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body SettingsRequest true "Settings"
// @Success 200 {object} models.Settings
// @Failure 400 {object} map[string]string "Validation error"
// @Router /settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	var input SettingsRequest
	log := h.logger.WithField("method", "updateSettings")
	if !h.bind(c, log, &input) {
		return
	}
	settings, err := h.app.UpdateSettings(c.Request.Context(), DTOToSettings(input))
	if !handleMutation(c, log, err) {
		return
	}
	c.JSON(http.StatusOK, settings)
}

// @Summary Purchase premium
// @Description Simulated purchase; unlocks premium themes
// @Tags Profile
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /premium/purchase [post]
func (h *Handler) purchasePremium(c *gin.Context) {
	log := h.logger.WithField("method", "purchasePremium")
	if !handleMutation(c, log, h.app.PurchasePremium(c.Request.Context(), sessionFrom(c))) {
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get map configuration
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.MapConfig
// @Router /map/config [get]
func (h *Handler) getMapConfig(c *gin.Context) {
	cfg, err := h.app.MapConfig(c.Request.Context())
	if err != nil {
		writeError(c, h.logger.WithField("method", "getMapConfig"), err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// @Summary Search an address
// @Description Geocode an address within the city
// @Tags Map
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param search body SearchRequest true "Address query"
// @Success 200 {object} SearchResponse
// @Failure 404 {object} map[string]string "Nothing found"
// @Failure 502 {object} map[string]string "Geocoder unavailable"
// @Router /search [post]
func (h *Handler) search(c *gin.Context) {
	var input SearchRequest
	log := h.logger.WithField("method", "search")
	if !h.bind(c, log, &input) {
		return
	}
	candidates, err := h.app.Search(c.Request.Context(), sessionFrom(c), input.Query)
	if err != nil && !service.IsPersistError(err) {
		writeError(c, log, err, http.StatusBadGateway)
		return
	}
	handleMutation(c, log, err)
	c.JSON(http.StatusOK, SearchResponse{Results: CandidatesToResponses(candidates)})
}

// @Summary List fuel options
// @Tags Fuel
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FuelOption
// @Router /fuel/options [get]
func (h *Handler) listFuelOptions(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.FuelOptions())
}

// @Summary Quote a fuel delivery
// @Tags Fuel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quote body FuelRequest true "Fuel and litres"
// @Success 200 {object} FuelQuoteResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Router /fuel/quote [post]
func (h *Handler) quoteFuel(c *gin.Context) {
	var input FuelRequest
	log := h.logger.WithField("method", "quoteFuel")
	if !h.bind(c, log, &input) {
		return
	}
	quote, err := h.app.QuoteFuel(input.Fuel, input.Litres)
	if err != nil {
		writeError(c, log, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, QuoteToResponse(quote))
}

// @Summary Order a fuel delivery
// @Description Simulated order. Without confirm=true the quote is returned with 428.
// @Tags Fuel
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param order body FuelOrderRequest true "Fuel, litres and confirmation"
// @Success 201 {object} FuelQuoteResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 428 {object} map[string]interface{} "Confirmation required, quote attached"
// @Router /fuel/orders [post]
func (h *Handler) orderFuel(c *gin.Context) {
	var input FuelOrderRequest
	log := h.logger.WithField("method", "orderFuel")
	if !h.bind(c, log, &input) {
		return
	}
	quote, err := h.app.OrderFuel(c.Request.Context(), sessionFrom(c), input.Fuel, input.Litres, input.Confirm)
	if errors.Is(err, service.ErrConfirmationRequired) {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": err.Error(), "quote": QuoteToResponse(quote)})
		return
	}
	if !handleMutation(c, log, err) {
		return
	}
	c.JSON(http.StatusCreated, QuoteToResponse(quote))
}
