package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/service"
	"github.com/shenikar/alertabh/internal/wizard"
)

// @Summary Start a report
// @Description Start a new alert report with an empty draft. Discards any draft in progress.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 201 {object} ReportResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /reports [post]
func (h *Handler) startReport(c *gin.Context) {
	v, err := h.reports.Start(c.Request.Context(), sessionFrom(c))
	if err != nil {
		writeError(c, h.logger.WithField("method", "startReport"), err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, ViewToReportResponse(v))
}

// @Summary Get the report in progress
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReportResponse
// @Failure 404 {object} map[string]string "No report in progress"
// @Router /reports/current [get]
func (h *Handler) currentReport(c *gin.Context) {
	v, err := h.reports.Current(c.Request.Context(), sessionFrom(c))
	h.respondReport(c, "currentReport", v, err)
}

// @Summary Cancel the report in progress
// @Description Discard the draft. Alerts and notifications are not touched.
// @Tags Reports
// @Security BearerAuth
// @Success 204 "No Content"
// @Router /reports/current [delete]
func (h *Handler) cancelReport(c *gin.Context) {
	_ = h.reports.Cancel(c.Request.Context(), sessionFrom(c))
	c.Status(http.StatusNoContent)
}

// @Summary Request device location
// @Description Issue a token for the next device location result. Older tokens become stale.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TokenResponse
// @Failure 404 {object} map[string]string "No report in progress"
// @Failure 409 {object} map[string]string "Wrong step"
// @Router /reports/current/location/request [post]
func (h *Handler) requestLocation(c *gin.Context) {
	token, err := h.reports.RequestLocation(c.Request.Context(), sessionFrom(c))
	if err != nil {
		writeError(c, h.logger.WithField("method", "requestLocation"), err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: uint64(token)})
}

// @Summary Deliver device location
// @Description Deliver a location result for a previously issued token
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param fix body ResolveLocationRequest true "Position or failure"
// @Success 200 {object} ReportResponse
// @Failure 409 {object} map[string]string "Stale token or wrong step"
// @Failure 422 {object} map[string]string "Device could not provide a location"
// @Router /reports/current/location [post]
func (h *Handler) resolveLocation(c *gin.Context) {
	var input ResolveLocationRequest
	log := h.logger.WithField("method", "resolveLocation")
	if !h.bind(c, log, &input) {
		return
	}

	fix := wizard.Fix{Failure: wizard.FailureKind(input.Failure)}
	if input.Failure == "" && input.Latitude != nil && input.Longitude != nil {
		fix.Position = &models.Position{Latitude: *input.Latitude, Longitude: *input.Longitude}
	}
	v, err := h.reports.ResolveLocation(c.Request.Context(), sessionFrom(c), wizard.Token(input.Token), fix)
	h.respondReport(c, "resolveLocation", v, err)
}

// @Summary Search an address for the report
// @Description Geocode an address and place the chosen result in the draft
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param search body LocationSearchRequest true "Address query"
// @Success 200 {object} LocationSearchResponse
// @Failure 404 {object} map[string]string "Nothing found"
// @Failure 502 {object} map[string]string "Geocoder unavailable"
// @Router /reports/current/location/search [post]
func (h *Handler) searchReportLocation(c *gin.Context) {
	var input LocationSearchRequest
	log := h.logger.WithField("method", "searchReportLocation")
	if !h.bind(c, log, &input) {
		return
	}

	v, candidates, err := h.reports.SearchLocation(c.Request.Context(), sessionFrom(c), service.LocationSearch{
		Query: input.Query,
		Index: input.Index,
		Skip:  input.Skip,
	})
	if err != nil && !service.IsPersistError(err) {
		writeError(c, log, err, http.StatusBadGateway)
		return
	}
	handleMutation(c, log, err)
	c.JSON(http.StatusOK, LocationSearchResponse{
		Report:  ViewToReportResponse(v),
		Results: CandidatesToResponses(candidates),
	})
}

// @Summary Confirm the searched location
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReportResponse
// @Failure 409 {object} map[string]string "No position or wrong step"
// @Router /reports/current/location/confirm [post]
func (h *Handler) confirmLocation(c *gin.Context) {
	v, err := h.reports.ConfirmLocation(c.Request.Context(), sessionFrom(c))
	h.respondReport(c, "confirmLocation", v, err)
}

// @Summary Attach a photo
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param photo body PhotoRequest true "Image as base64 data URI"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Not an image data URI"
// @Router /reports/current/photo [post]
func (h *Handler) attachPhoto(c *gin.Context) {
	var input PhotoRequest
	log := h.logger.WithField("method", "attachPhoto")
	if !h.bind(c, log, &input) {
		return
	}
	v, err := h.reports.AttachPhoto(c.Request.Context(), sessionFrom(c), input.Photo)
	h.respondReport(c, "attachPhoto", v, err)
}

// @Summary Skip the photo
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ReportResponse
// @Router /reports/current/photo/skip [post]
func (h *Handler) skipPhoto(c *gin.Context) {
	v, err := h.reports.SkipPhoto(c.Request.Context(), sessionFrom(c))
	h.respondReport(c, "skipPhoto", v, err)
}

// @Summary Choose the alert type
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body CategoryRequest true "Alert type"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Unknown type"
// @Router /reports/current/category [post]
func (h *Handler) chooseCategory(c *gin.Context) {
	var input CategoryRequest
	log := h.logger.WithField("method", "chooseCategory")
	if !h.bind(c, log, &input) {
		return
	}
	v, err := h.reports.ChooseCategory(c.Request.Context(), sessionFrom(c), input.Category)
	h.respondReport(c, "chooseCategory", v, err)
}

// @Summary Set alert details
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param details body DetailsRequest true "Duration, severity and description"
// @Success 200 {object} ReportResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Router /reports/current/details [put]
func (h *Handler) setDetails(c *gin.Context) {
	var input DetailsRequest
	log := h.logger.WithField("method", "setDetails")
	if !h.bind(c, log, &input) {
		return
	}
	v, err := h.reports.SetDetails(c.Request.Context(), sessionFrom(c), wizard.Details{
		DurationMinutes: input.Duration,
		Severity:        models.Severity(input.Severity),
		Description:     input.Description,
	})
	h.respondReport(c, "setDetails", v, err)
}

// @Summary Submit the report
// @Description Create the alert from the draft and close the report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 201 {object} AlertResponse
// @Failure 400 {object} map[string]string "No alert type selected"
// @Failure 409 {object} map[string]string "Wrong step"
// @Router /reports/current/submit [post]
func (h *Handler) submitReport(c *gin.Context) {
	log := h.logger.WithField("method", "submitReport")
	alert, err := h.reports.Submit(c.Request.Context(), sessionFrom(c))
	if !handleMutation(c, log, err) {
		return
	}
	c.JSON(http.StatusCreated, ModelToAlertResponse(*alert, h.catalog, h.now()))
}

func (h *Handler) respondReport(c *gin.Context, method string, v service.ReportView, err error) {
	if err != nil {
		writeError(c, h.logger.WithField("method", method), err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, ViewToReportResponse(v))
}
