// Package wizard реализует пошаговый мастер создания алерта:
// местоположение -> фото -> тип -> детали -> отправка.
//
// Flow не потокобезопасен; синхронизацию обеспечивает владелец.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shenikar/alertabh/internal/models"
)

// Step - состояние мастера
type Step int

const (
	AwaitingLocation Step = iota + 1
	AwaitingPhoto
	AwaitingCategory
	AwaitingDetails
	Submitting
	Complete
)

func (s Step) String() string {
	switch s {
	case AwaitingLocation:
		return "awaiting_location"
	case AwaitingPhoto:
		return "awaiting_photo"
	case AwaitingCategory:
		return "awaiting_category"
	case AwaitingDetails:
		return "awaiting_details"
	case Submitting:
		return "submitting"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

const (
	MinDuration     = 15
	MaxDuration     = 120
	DurationStep    = 15
	DefaultDuration = 30
	MaxDescription  = 500

	DefaultLocationLabel = "Minha Localização"
)

// CityCenter - координата по умолчанию, если позиция так и не была получена
var CityCenter = models.Position{Latitude: -19.9200, Longitude: -43.9400}

var (
	ErrInvalidTransition = errors.New("action not allowed at current step")
	ErrCategoryRequired  = errors.New("select an alert type before submitting")
	ErrUnknownCategory   = errors.New("unknown alert type")
	ErrStaleCallback     = errors.New("location result belongs to an outdated request")
	ErrNoPosition        = errors.New("no position to confirm")
	ErrInvalidPhoto      = errors.New("photo must be a base64 image data URI")
	ErrInvalidDuration   = fmt.Errorf("duration must be between %d and %d minutes in steps of %d", MinDuration, MaxDuration, DurationStep)
	ErrInvalidSeverity   = errors.New("severity must be low, medium or high")
	ErrDescriptionLength = fmt.Errorf("description must be at most %d characters", MaxDescription)
)

// FailureKind - причина, по которой устройство не вернуло координаты
type FailureKind string

const (
	FailureUnsupported FailureKind = "unsupported"
	FailureDenied      FailureKind = "denied"
	FailureTimeout     FailureKind = "timeout"
	FailureUnavailable FailureKind = "unavailable"
)

// LocationError сообщается пользователю; шаг не меняется
type LocationError struct {
	Kind FailureKind
}

func (e *LocationError) Error() string {
	switch e.Kind {
	case FailureUnsupported:
		return "geolocation is not supported on this device"
	case FailureDenied:
		return "location permission denied"
	case FailureTimeout:
		return "location request timed out"
	default:
		return "could not acquire location"
	}
}

// Fix - результат запроса геолокации устройства
type Fix struct {
	Position *models.Position
	Failure  FailureKind
}

// Token связывает ответ геолокации с запросом, который его породил
type Token uint64

// CategorySet - каталог допустимых типов
type CategorySet interface {
	HasCategory(id string) bool
}

// Draft - незавершенный алерт
type Draft struct {
	Category        string           `json:"type"`
	Photo           string           `json:"photo,omitempty"`
	Description     string           `json:"description"`
	Severity        models.Severity  `json:"severity"`
	DurationMinutes int              `json:"duration"`
	GPSLocked       bool             `json:"gpsLocked"`
	Position        *models.Position `json:"position,omitempty"`
	LocationLabel   string           `json:"location"`
}

// NewDraft возвращает черновик со значениями по умолчанию
func NewDraft() Draft {
	return Draft{
		Severity:        models.SeverityMedium,
		DurationMinutes: DefaultDuration,
	}
}

// Details - поля шага "детали"
type Details struct {
	DurationMinutes int
	Severity        models.Severity
	Description     string
}

// Flow - экземпляр мастера
type Flow struct {
	step       Step
	draft      Draft
	generation uint64
	pending    uint64
	categories CategorySet
}

// New создает мастер на первом шаге с пустым черновиком
func New(categories CategorySet) *Flow {
	return &Flow{
		step:       AwaitingLocation,
		draft:      NewDraft(),
		categories: categories,
	}
}

// Step возвращает текущий шаг
func (f *Flow) Step() Step { return f.step }

// Draft возвращает копию черновика
func (f *Flow) Draft() Draft {
	d := f.draft
	if d.Position != nil {
		p := *d.Position
		d.Position = &p
	}
	return d
}

// RequestLocation выдает токен для ожидаемого ответа геолокации.
// Каждый новый запрос делает предыдущие токены устаревшими.
func (f *Flow) RequestLocation() (Token, error) {
	if f.step != AwaitingLocation {
		return 0, ErrInvalidTransition
	}
	f.generation++
	f.pending = f.generation
	return Token(f.generation), nil
}

// ResolveLocation применяет ответ геолокации
func (f *Flow) ResolveLocation(token Token, fix Fix) error {
	if f.pending == 0 || uint64(token) != f.pending {
		return ErrStaleCallback
	}
	if f.step != AwaitingLocation {
		return ErrStaleCallback
	}
	if fix.Failure != "" || fix.Position == nil {
		kind := fix.Failure
		if kind == "" {
			kind = FailureUnavailable
		}
		return &LocationError{Kind: kind}
	}
	f.pending = 0
	p := *fix.Position
	f.draft.Position = &p
	f.draft.GPSLocked = true
	f.draft.LocationLabel = DefaultLocationLabel
	f.step = AwaitingPhoto
	return nil
}

// UseSearchedLocation подставляет позицию, найденную поиском по адресу
func (f *Flow) UseSearchedLocation(pos models.Position, label string, skip bool) error {
	if f.step != AwaitingLocation {
		return ErrInvalidTransition
	}
	// ответ устройства, пришедший после поиска, больше не нужен
	f.pending = 0
	f.draft.Position = &pos
	f.draft.LocationLabel = label
	if skip {
		f.step = AwaitingPhoto
	}
	return nil
}

// ConfirmLocation переходит к фото с уже подставленной позицией
func (f *Flow) ConfirmLocation() error {
	if f.step != AwaitingLocation {
		return ErrInvalidTransition
	}
	if f.draft.Position == nil {
		return ErrNoPosition
	}
	f.pending = 0
	f.step = AwaitingPhoto
	return nil
}

// AttachPhoto сохраняет фото и переходит к выбору типа
func (f *Flow) AttachPhoto(dataURI string) error {
	if f.step != AwaitingPhoto {
		return ErrInvalidTransition
	}
	if !IsImageDataURI(dataURI) {
		return ErrInvalidPhoto
	}
	f.draft.Photo = dataURI
	f.step = AwaitingCategory
	return nil
}

// SkipPhoto переходит к выбору типа без фото
func (f *Flow) SkipPhoto() error {
	if f.step != AwaitingPhoto {
		return ErrInvalidTransition
	}
	f.step = AwaitingCategory
	return nil
}

// ChooseCategory выбирает тип и сразу переходит к деталям
func (f *Flow) ChooseCategory(id string) error {
	if f.step != AwaitingCategory {
		return ErrInvalidTransition
	}
	if f.categories == nil || !f.categories.HasCategory(id) {
		return ErrUnknownCategory
	}
	f.draft.Category = id
	f.step = AwaitingDetails
	return nil
}

// SetDetails меняет длительность, степень и описание
func (f *Flow) SetDetails(d Details) error {
	if f.step != AwaitingDetails {
		return ErrInvalidTransition
	}
	if d.DurationMinutes < MinDuration || d.DurationMinutes > MaxDuration || d.DurationMinutes%DurationStep != 0 {
		return ErrInvalidDuration
	}
	if d.Severity == "" {
		d.Severity = models.SeverityMedium
	}
	if !d.Severity.Valid() {
		return ErrInvalidSeverity
	}
	desc := strings.TrimSpace(d.Description)
	if utf8.RuneCountInString(desc) > MaxDescription {
		return ErrDescriptionLength
	}
	f.draft.DurationMinutes = d.DurationMinutes
	f.draft.Severity = d.Severity
	f.draft.Description = desc
	return nil
}

// Submit переводит мастер в Submitting и возвращает итоговый черновик с
// гарантированно заполненной позицией
func (f *Flow) Submit() (Draft, error) {
	if f.draft.Category == "" {
		return Draft{}, ErrCategoryRequired
	}
	if f.step != AwaitingDetails {
		return Draft{}, ErrInvalidTransition
	}
	f.step = Submitting
	d := f.Draft()
	if d.Position == nil {
		center := CityCenter
		d.Position = &center
	}
	if d.LocationLabel == "" {
		d.LocationLabel = DefaultLocationLabel
	}
	return d, nil
}

// Complete завершает отправку и полностью сбрасывает черновик
func (f *Flow) Complete() error {
	if f.step != Submitting {
		return ErrInvalidTransition
	}
	f.Reset()
	return nil
}

// Abort возвращает мастер на шаг деталей, если отправка не удалась
func (f *Flow) Abort() error {
	if f.step != Submitting {
		return ErrInvalidTransition
	}
	f.step = AwaitingDetails
	return nil
}

// Cancel отбрасывает черновик; то же самое, что Reset
func (f *Flow) Cancel() {
	f.Reset()
}

// Reset возвращает мастер в начальное состояние. Все выданные токены
// геолокации становятся устаревшими.
func (f *Flow) Reset() {
	f.step = AwaitingLocation
	f.draft = NewDraft()
	f.generation++
	f.pending = 0
}

// BuildAlert собирает алерт из отправленного черновика
func BuildAlert(d Draft, id int64, createdBy string, now time.Time) *models.Alert {
	pos := CityCenter
	if d.Position != nil {
		pos = *d.Position
	}
	label := d.LocationLabel
	if label == "" {
		label = DefaultLocationLabel
	}
	return &models.Alert{
		ID:              id,
		Latitude:        pos.Latitude,
		Longitude:       pos.Longitude,
		Category:        strings.ToLower(d.Category),
		Photo:           d.Photo,
		Description:     d.Description,
		Severity:        d.Severity,
		DurationMinutes: d.DurationMinutes,
		Location:        label,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		Verified:        1,
	}
}

// IsImageDataURI проверяет формат "data:image/<type>;base64,<payload>"
func IsImageDataURI(s string) bool {
	const prefix = "data:image/"
	if !strings.HasPrefix(s, prefix) {
		return false
	}
	meta, payload, ok := strings.Cut(s[len(prefix):], ",")
	if !ok || payload == "" {
		return false
	}
	return strings.HasSuffix(meta, ";base64") && len(meta) > len(";base64")
}
