package v1

import (
	"time"

	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/service"
)

// LoginRequest DTO для входа
// @Description DTO для входа
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResponse DTO с токеном сессии
// @Description DTO с токеном сессии
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      models.Session `json:"user"`
}

// AlertResponse DTO алерта с производными подписями
// @Description DTO алерта с производными подписями
type AlertResponse struct {
	models.Alert
	TypeLabel string `json:"typeLabel"`
	TypeIcon  string `json:"typeIcon"`
	Time      string `json:"time"`
}

// TokenResponse DTO с токеном ожидаемого ответа геолокации
// @Description DTO с токеном ожидаемого ответа геолокации
type TokenResponse struct {
	Token uint64 `json:"token"`
}

// ResolveLocationRequest DTO ответа геолокации устройства.
// Либо координаты, либо failure.
// @Description DTO ответа геолокации устройства
type ResolveLocationRequest struct {
	Token     uint64   `json:"token" validate:"required"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"required_without=Failure,omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"required_without=Failure,omitempty,longitude"`
	Failure   string   `json:"failure,omitempty" validate:"omitempty,oneof=unsupported denied timeout unavailable"`
}

// SearchRequest DTO поиска адреса
// @Description DTO поиска адреса
type SearchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
}

// LocationSearchRequest DTO поиска адреса внутри мастера
// @Description DTO поиска адреса внутри мастера
type LocationSearchRequest struct {
	Query string `json:"query" validate:"required,max=200"`
	Index int    `json:"index" validate:"gte=0,lt=5"`
	Skip  bool   `json:"skip"`
}

// SearchResponse DTO результатов поиска
// @Description DTO результатов поиска
type SearchResponse struct {
	Results []CandidateResponse `json:"results"`
}

// CandidateResponse DTO одного варианта адреса
// @Description DTO одного варианта адреса
type CandidateResponse struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// LocationSearchResponse DTO мастера после поиска
// @Description DTO мастера после поиска
type LocationSearchResponse struct {
	Report  ReportResponse      `json:"report"`
	Results []CandidateResponse `json:"results"`
}

// PhotoRequest DTO фото в виде data URI
// @Description DTO фото в виде data URI
type PhotoRequest struct {
	Photo string `json:"photo" validate:"required"`
}

// CategoryRequest DTO выбора типа алерта
// @Description DTO выбора типа алерта
type CategoryRequest struct {
	Category string `json:"type" validate:"required"`
}

// DetailsRequest DTO деталей алерта
// @Description DTO деталей алерта
type DetailsRequest struct {
	Duration    int    `json:"duration" validate:"required,min=15,max=120"`
	Severity    string `json:"severity" validate:"omitempty,oneof=low medium high"`
	Description string `json:"description" validate:"max=2000"`
}

// ReportResponse DTO состояния мастера
// @Description DTO состояния мастера
type ReportResponse struct {
	Step        int      `json:"step"`
	StepName    string   `json:"stepName"`
	Category    string   `json:"type,omitempty"`
	HasPhoto    bool     `json:"hasPhoto"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Duration    int      `json:"duration"`
	GPSLocked   bool     `json:"gpsLocked"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Location    string   `json:"location,omitempty"`
}

// ThemeRequest DTO выбора темы
// @Description DTO выбора темы
type ThemeRequest struct {
	Theme string `json:"theme" validate:"required"`
}

// SettingsRequest DTO настроек
// @Description DTO настроек
type SettingsRequest struct {
	NotificationsEnabled *bool  `json:"notificationsEnabled" validate:"required"`
	SoundEnabled         *bool  `json:"soundEnabled" validate:"required"`
	VibrationEnabled     *bool  `json:"vibrationEnabled" validate:"required"`
	NotificationRadius   int    `json:"notificationRadius" validate:"required,min=1,max=50"`
	MapStyle             string `json:"mapStyle" validate:"omitempty,max=32"`
}

// FuelRequest DTO расчета доставки топлива
// @Description DTO расчета доставки топлива
type FuelRequest struct {
	Fuel   string `json:"fuel" validate:"required"`
	Litres int    `json:"litres" validate:"required,min=1,max=100"`
}

// FuelOrderRequest DTO заказа топлива
// @Description DTO заказа топлива
type FuelOrderRequest struct {
	FuelRequest
	Confirm bool `json:"confirm"`
}

// FuelQuoteResponse DTO расчета стоимости
// @Description DTO расчета стоимости
type FuelQuoteResponse struct {
	Fuel        string `json:"fuel"`
	FuelName    string `json:"fuelName"`
	Litres      int    `json:"litres"`
	TotalCents  int64  `json:"totalCents"`
	Total       string `json:"total"`
	DeliveryFee int64  `json:"deliveryFeeCents"`
	ETAMinutes  int    `json:"etaMinutes"`
}

// NotificationsResponse DTO списка уведомлений
// @Description DTO списка уведомлений
type NotificationsResponse struct {
	Unread        int                        `json:"unread"`
	Notifications []service.NotificationView `json:"notifications"`
}
