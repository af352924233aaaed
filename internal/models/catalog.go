package models

// Category - тип алерта из фиксированного каталога
type Category struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// Theme - визуальная тема интерфейса
type Theme struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Preview string `json:"preview" yaml:"preview"`
	Premium bool   `json:"premium" yaml:"premium"`
}

// MapStyle - стиль тайлов карты
type MapStyle struct {
	ID          string `json:"id" yaml:"id"`
	TileURL     string `json:"tileUrl" yaml:"tile_url"`
	Attribution string `json:"attribution" yaml:"attribution"`
}

// FuelOption - вид топлива для доставки
type FuelOption struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
	Icon  string  `json:"icon" yaml:"icon"`
}

// FuelQuote - расчет стоимости заказа топлива
type FuelQuote struct {
	Fuel        FuelOption `json:"fuel"`
	Litres      int        `json:"litres"`
	TotalCents  int64      `json:"totalCents"`
	DeliveryFee int64      `json:"deliveryFeeCents"`
	ETAMinutes  int        `json:"etaMinutes"`
}
