package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/geocoding"
	"github.com/shenikar/alertabh/internal/service"
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
)

// persistWarning сообщает клиенту, что изменение не сохранено в хранилище
const persistWarning = `199 - "change applied but not persisted"`

// statusFor сопоставляет доменную ошибку HTTP-статусу.
// fallback используется для неизвестных ошибок.
func statusFor(err error, fallback int) int {
	var locErr *wizard.LocationError
	switch {
	case errors.As(err, &locErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrPremiumRequired):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAlertNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrNoActiveReport),
		errors.Is(err, service.ErrNoBackup),
		errors.Is(err, geocoding.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, wizard.ErrInvalidTransition),
		errors.Is(err, wizard.ErrStaleCallback),
		errors.Is(err, wizard.ErrNoPosition):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrCategoryRequired),
		errors.Is(err, wizard.ErrUnknownCategory),
		errors.Is(err, wizard.ErrInvalidPhoto),
		errors.Is(err, wizard.ErrInvalidDuration),
		errors.Is(err, wizard.ErrInvalidSeverity),
		errors.Is(err, wizard.ErrDescriptionLength),
		errors.Is(err, service.ErrInvalidSettings),
		errors.Is(err, service.ErrCandidateIndex),
		errors.Is(err, catalog.ErrUnknownTheme),
		errors.Is(err, catalog.ErrUnknownMapStyle),
		errors.Is(err, catalog.ErrUnknownFuel),
		errors.Is(err, catalog.ErrInvalidLitres),
		errors.Is(err, geocoding.ErrEmptyQuery):
		return http.StatusBadRequest
	}
	return fallback
}

// writeError отвечает ошибкой; внутренние детали наружу не отдаются
func writeError(c *gin.Context, log *logrus.Entry, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		msg := "internal server error"
		if status == http.StatusBadGateway {
			msg = "address search is unavailable"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	log.WithError(err).Warn("Request rejected")

	var locErr *wizard.LocationError
	if errors.As(err, &locErr) {
		c.JSON(status, gin.H{"error": err.Error(), "kind": locErr.Kind})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// handleMutation разбирает результат изменения состояния. Ошибка сохранения
// не отменяет изменения: клиент получает успех и заголовок Warning.
// Возвращает false, если ответ с ошибкой уже записан.
func handleMutation(c *gin.Context, log *logrus.Entry, err error) bool {
	if err == nil {
		return true
	}
	if service.IsPersistError(err) {
		log.WithError(err).Error("State change was not persisted")
		c.Header("Warning", persistWarning)
		return true
	}
	writeError(c, log, err, http.StatusInternalServerError)
	return false
}
