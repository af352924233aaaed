package models

import (
	"time"
)

// Severity - степень опасности алерта
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid проверяет, что значение входит в перечисление
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Alert - пользовательское сообщение о ситуации на дороге
type Alert struct {
	ID              int64     `json:"id"`
	Latitude        float64   `json:"lat"`
	Longitude       float64   `json:"lng"`
	Category        string    `json:"type"`
	Photo           string    `json:"photo,omitempty"`
	Description     string    `json:"description,omitempty"`
	Severity        Severity  `json:"severity"`
	DurationMinutes int       `json:"duration"`
	Location        string    `json:"location"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	Verified        int       `json:"verified"`
}

// HasPhoto сообщает, приложено ли фото
func (a *Alert) HasPhoto() bool {
	return a.Photo != ""
}

// Position - географическая точка
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
