package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/alertabh/internal/service"
)

// @Summary Back up state
// @Description Persist the current state explicitly
// @Tags Backup
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 500 {object} map[string]string "State could not be saved"
// @Router /backup [post]
func (h *Handler) backup(c *gin.Context) {
	if err := h.app.Backup(c.Request.Context()); err != nil {
		writeError(c, h.logger.WithField("method", "backup"), err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Restore state
// @Description Replace the in-memory state with the stored copy
// @Tags Backup
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "No backup found"
// @Failure 500 {object} map[string]string "State could not be restored"
// @Router /restore [post]
func (h *Handler) restore(c *gin.Context) {
	if err := h.app.Restore(c.Request.Context(), sessionFrom(c)); err != nil {
		writeError(c, h.logger.WithField("method", "restore"), err, http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Export state
// @Description Download the state as a single JSON document
// @Tags Backup
// @Produce json
// @Security BearerAuth
// @Success 200 {file} file
// @Router /backup/export [get]
func (h *Handler) exportState(c *gin.Context) {
	data, err := h.app.Export(c.Request.Context())
	if err != nil {
		writeError(c, h.logger.WithField("method", "exportState"), err, http.StatusInternalServerError)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="alertabh-backup.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// @Summary Import state
// @Description Replace the state with an exported JSON document
// @Tags Backup
// @Accept json
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Malformed document"
// @Router /backup/import [post]
func (h *Handler) importState(c *gin.Context) {
	log := h.logger.WithField("method", "importState")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	data, err := c.GetRawData()
	if err != nil {
		log.WithError(err).Warn("Failed to read import body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err = h.app.Import(c.Request.Context(), sessionFrom(c), data)
	if err != nil && !service.IsPersistError(err) {
		log.WithError(err).Warn("Rejected import document")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed backup document"})
		return
	}
	handleMutation(c, log, err)
	c.Status(http.StatusNoContent)
}
