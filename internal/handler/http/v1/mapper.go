package v1

import (
	"time"

	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/geocoding"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/service"
)

// ModelToAlertResponse дополняет алерт подписью типа и относительным временем
func ModelToAlertResponse(model models.Alert, cat *catalog.Catalog, now time.Time) AlertResponse {
	resp := AlertResponse{
		Alert:     model,
		TypeLabel: model.Category,
		Time:      models.RelativeLabel(model.CreatedAt, now),
	}
	if c, ok := cat.Category(model.Category); ok {
		resp.TypeLabel = c.Label
		resp.TypeIcon = c.Icon
	}
	return resp
}

// ModelsToAlertResponses преобразует слайс алертов
func ModelsToAlertResponses(alerts []models.Alert, cat *catalog.Catalog, now time.Time) []AlertResponse {
	responses := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		responses[i] = ModelToAlertResponse(a, cat, now)
	}
	return responses
}

// ViewToReportResponse преобразует состояние мастера. Само фото не
// возвращается, только признак его наличия.
func ViewToReportResponse(v service.ReportView) ReportResponse {
	resp := ReportResponse{
		Step:        int(v.Step),
		StepName:    v.StepName,
		Category:    v.Draft.Category,
		HasPhoto:    v.Draft.Photo != "",
		Description: v.Draft.Description,
		Severity:    string(v.Draft.Severity),
		Duration:    v.Draft.DurationMinutes,
		GPSLocked:   v.Draft.GPSLocked,
		Location:    v.Draft.LocationLabel,
	}
	if p := v.Draft.Position; p != nil {
		lat, lng := p.Latitude, p.Longitude
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	return resp
}

// CandidatesToResponses преобразует результаты геокодера
func CandidatesToResponses(candidates []geocoding.Candidate) []CandidateResponse {
	responses := make([]CandidateResponse, len(candidates))
	for i, c := range candidates {
		responses[i] = CandidateResponse{
			Latitude:    c.Latitude,
			Longitude:   c.Longitude,
			DisplayName: c.DisplayName,
		}
	}
	return responses
}

// QuoteToResponse преобразует расчет стоимости топлива
func QuoteToResponse(q models.FuelQuote) FuelQuoteResponse {
	return FuelQuoteResponse{
		Fuel:        q.Fuel.ID,
		FuelName:    q.Fuel.Name,
		Litres:      q.Litres,
		TotalCents:  q.TotalCents,
		Total:       catalog.FormatCents(q.TotalCents),
		DeliveryFee: q.DeliveryFee,
		ETAMinutes:  q.ETAMinutes,
	}
}

// DTOToSettings преобразует DTO настроек в доменную модель
func DTOToSettings(dto SettingsRequest) models.Settings {
	return models.Settings{
		NotificationsEnabled: *dto.NotificationsEnabled,
		SoundEnabled:         *dto.SoundEnabled,
		VibrationEnabled:     *dto.VibrationEnabled,
		NotificationRadiusKm: dto.NotificationRadius,
		MapStyle:             dto.MapStyle,
	}
}
