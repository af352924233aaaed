// Package achievement содержит каталог достижений, правило их разблокировки
// и производную статистику профиля.
package achievement

import (
	"time"

	"github.com/shenikar/alertabh/internal/models"
)

// Rarity - редкость достижения
type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityEpic   Rarity = "epic"
)

// Input - данные, над которыми вычисляются предикаты
type Input struct {
	Alerts     []*models.Alert
	Premium    bool
	UsedSearch bool
	// Location - часовой пояс для правил по времени суток; nil означает UTC
	Location *time.Location
}

// Achievement - запись каталога
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Rarity      Rarity `json:"rarity"`

	predicate func(Input) bool
}

// Satisfied вычисляет предикат достижения
func (a Achievement) Satisfied(in Input) bool {
	return a.predicate != nil && a.predicate(in)
}

var catalog = []Achievement{
	{ID: "first_alert", Name: "Primeiro Alerta", Icon: "🚨", Description: "Reporte seu primeiro alerta", Points: 50, Rarity: RarityCommon, predicate: minAlerts(1)},
	{ID: "vigilant", Name: "Vigilante", Icon: "👁️", Description: "Reporte 5 alertas", Points: 100, Rarity: RarityCommon, predicate: minAlerts(5)},
	{ID: "protector", Name: "Protetor da Cidade", Icon: "🛡️", Description: "Reporte 10 alertas", Points: 200, Rarity: RarityRare, predicate: minAlerts(10)},
	{ID: "hero", Name: "Herói do Trânsito", Icon: "🦸", Description: "Reporte 20 alertas", Points: 500, Rarity: RarityEpic, predicate: minAlerts(20)},
	{ID: "diversity", Name: "Olhar Versátil", Icon: "🎯", Description: "Reporte 3 tipos diferentes de alerta", Points: 150, Rarity: RarityRare, predicate: minCategories(3)},
	{ID: "photographer", Name: "Fotógrafo de Rua", Icon: "📸", Description: "Envie um alerta com foto", Points: 100, Rarity: RarityCommon, predicate: anyPhoto},
	{ID: "premium", Name: "Apoiador Premium", Icon: "👑", Description: "Torne-se Premium", Points: 200, Rarity: RarityEpic, predicate: isPremium},
	{ID: "night_owl", Name: "Coruja Noturna", Icon: "🦉", Description: "Reporte um alerta entre 22h e 6h", Points: 150, Rarity: RarityRare, predicate: anyAtNight},
	{ID: "explorer", Name: "Explorador", Icon: "🧭", Description: "Busque um endereço no mapa", Points: 50, Rarity: RarityCommon, predicate: usedSearch},
}

// Catalog возвращает копию каталога в фиксированном порядке
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup ищет достижение по id
func Lookup(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Evaluate возвращает достижения, чей предикат выполнен, но которые еще не
// разблокированы. Порядок - порядок каталога.
func Evaluate(in Input, unlocked []string) []Achievement {
	have := make(map[string]struct{}, len(unlocked))
	for _, id := range unlocked {
		have[id] = struct{}{}
	}
	var fresh []Achievement
	for _, a := range catalog {
		if _, ok := have[a.ID]; ok {
			continue
		}
		if a.Satisfied(in) {
			fresh = append(fresh, a)
		}
	}
	return fresh
}

func minAlerts(n int) func(Input) bool {
	return func(in Input) bool {
		return len(in.Alerts) >= n
	}
}

func minCategories(n int) func(Input) bool {
	return func(in Input) bool {
		seen := make(map[string]struct{})
		for _, a := range in.Alerts {
			seen[a.Category] = struct{}{}
		}
		return len(seen) >= n
	}
}

func anyPhoto(in Input) bool {
	for _, a := range in.Alerts {
		if a.HasPhoto() {
			return true
		}
	}
	return false
}

func isPremium(in Input) bool {
	return in.Premium
}

func usedSearch(in Input) bool {
	return in.UsedSearch
}

func anyAtNight(in Input) bool {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, a := range in.Alerts {
		// время создания неизвестно
		if a.CreatedAt.IsZero() {
			continue
		}
		if IsNightHour(a.CreatedAt.In(loc).Hour()) {
			return true
		}
	}
	return false
}

// IsNightHour - окно 22:00-05:59
func IsNightHour(h int) bool {
	return h >= 22 || h < 6
}
