package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/alertabh/internal/auth"
	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/service"
	"github.com/sirupsen/logrus"
)

// maxImportBytes ограничивает тело импорта; фото хранятся внутри как data URI
const maxImportBytes = 20 << 20

type Handler struct {
	app      service.AppService
	reports  service.ReportService
	authn    *auth.Authenticator
	issuer   *auth.Issuer
	catalog  *catalog.Catalog
	logger   *logrus.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewHandler(app service.AppService, reports service.ReportService, authn *auth.Authenticator, issuer *auth.Issuer, cat *catalog.Catalog, logger *logrus.Logger) *Handler {
	return &Handler{
		app:      app,
		reports:  reports,
		authn:    authn,
		issuer:   issuer,
		catalog:  cat,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// bind читает JSON и проверяет его валидатором
func (h *Handler) bind(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ID"})
		return 0, false
	}
	return id, true
}

// @Summary Log in
// @Description Exchange configured credentials for a session token and reload the saved state
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login and password"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input LoginRequest
	log := h.logger.WithField("method", "login")
	if !h.bind(c, log, &input) {
		return
	}

	session, err := h.authn.Authenticate(input.Login, input.Password)
	if err != nil {
		log.WithField("login", input.Login).Warn("Rejected login attempt")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.issuer.Issue(session)
	if err != nil {
		log.WithError(err).Error("Failed to issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	// Состояние подгружается при каждом входе; сбой чтения не мешает войти
	if err := h.app.Load(c.Request.Context()); err != nil {
		log.WithError(err).Warn("Failed to reload state on login, keeping in-memory state")
	}
	log.WithFields(logrus.Fields{"login": session.Login, "role": session.Role}).Info("User logged in")
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp, User: session})
}

// @Summary List alerts
// @Description Get all alerts with category labels and relative time
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AlertResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /alerts [get]
func (h *Handler) listAlerts(c *gin.Context) {
	alerts := h.app.ListAlerts(c.Request.Context())
	c.JSON(http.StatusOK, ModelsToAlertResponses(alerts, h.catalog, h.now()))
}

// @Summary Remove an alert
// @Description Remove an alert. Administrators only; requires confirm=true.
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Alert ID"
// @Param confirm query bool false "Explicit confirmation"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid alert ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not an administrator"
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 428 {object} map[string]string "Confirmation required"
// @Router /alerts/{id} [delete]
func (h *Handler) deleteAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteAlert").WithField("id", id)
	confirmed, _ := strconv.ParseBool(c.DefaultQuery("confirm", "false"))

	err := h.app.DeleteAlert(c.Request.Context(), sessionFrom(c), id, confirmed)
	if !handleMutation(c, log, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List alert categories
// @Tags Alerts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Router /categories [get]
func (h *Handler) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Categories())
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
