// Package catalog содержит статические справочники: типы алертов, темы,
// стили карты и цены на топливо.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/shenikar/alertabh/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const (
	DeliveryFeeCents = 1500
	DeliveryETA      = 30
	MinFuelLitres    = 1
	MaxFuelLitres    = 100
)

var (
	ErrUnknownFuel     = errors.New("unknown fuel type")
	ErrInvalidLitres   = errors.New("fuel quantity out of range")
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrUnknownMapStyle = errors.New("unknown map style")
)

// Catalog - набор справочников
type Catalog struct {
	Categories []models.Category   `yaml:"categories"`
	Themes     []models.Theme      `yaml:"themes"`
	MapStyles  []models.MapStyle   `yaml:"map_styles"`
	Fuel       []models.FuelOption `yaml:"fuel"`
}

// Default возвращает встроенный каталог
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load возвращает встроенный каталог, заменяя цены на топливо содержимым
// файла fuelPath, если он задан
func Load(fuelPath string) (*Catalog, error) {
	c := Default()
	if fuelPath == "" {
		return c, nil
	}
	data, err := os.ReadFile(fuelPath)
	if err != nil {
		return nil, fmt.Errorf("read fuel catalog: %w", err)
	}
	var override struct {
		Fuel []models.FuelOption `yaml:"fuel"`
	}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse fuel catalog: %w", err)
	}
	if len(override.Fuel) == 0 {
		return nil, fmt.Errorf("fuel catalog %s has no entries", fuelPath)
	}
	c.Fuel = override.Fuel
	return c, nil
}

// Parse разбирает YAML каталога
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Categories) == 0 || len(c.Themes) == 0 || len(c.MapStyles) == 0 {
		return nil, errors.New("catalog is incomplete")
	}
	return c, nil
}

// Category ищет тип алерта по id
func (c *Catalog) Category(id string) (models.Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return models.Category{}, false
}

// HasCategory реализует wizard.CategorySet
func (c *Catalog) HasCategory(id string) bool {
	_, ok := c.Category(id)
	return ok
}

// CategoryLabel возвращает подпись типа или сам id
func (c *Catalog) CategoryLabel(id string) string {
	if cat, ok := c.Category(id); ok {
		return cat.Label
	}
	return id
}

// Theme ищет тему по id
func (c *Catalog) Theme(id string) (models.Theme, error) {
	for _, th := range c.Themes {
		if th.ID == id {
			return th, nil
		}
	}
	return models.Theme{}, ErrUnknownTheme
}

// MapStyle ищет стиль карты по id
func (c *Catalog) MapStyle(id string) (models.MapStyle, error) {
	for _, st := range c.MapStyles {
		if st.ID == id {
			return st, nil
		}
	}
	return models.MapStyle{}, ErrUnknownMapStyle
}

// Quote рассчитывает стоимость доставки топлива
func (c *Catalog) Quote(fuelID string, litres int) (models.FuelQuote, error) {
	var fuel *models.FuelOption
	for i := range c.Fuel {
		if c.Fuel[i].ID == fuelID {
			fuel = &c.Fuel[i]
			break
		}
	}
	if fuel == nil {
		return models.FuelQuote{}, ErrUnknownFuel
	}
	if litres < MinFuelLitres || litres > MaxFuelLitres {
		return models.FuelQuote{}, ErrInvalidLitres
	}
	priceCents := int64(math.Round(fuel.Price * 100))
	return models.FuelQuote{
		Fuel:        *fuel,
		Litres:      litres,
		TotalCents:  priceCents*int64(litres) + DeliveryFeeCents,
		DeliveryFee: DeliveryFeeCents,
		ETAMinutes:  DeliveryETA,
	}, nil
}

// FormatCents форматирует сумму как "44.45"
func FormatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
