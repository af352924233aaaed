package achievement

import "github.com/shenikar/alertabh/internal/models"

const (
	PointsPerAlert = 50
	PointsPerLevel = 500
)

// Badge - значок, который выдается по количеству алертов
type Badge struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Earned bool   `json:"earned"`
}

// Stats - производная статистика профиля. Никогда не сохраняется.
type Stats struct {
	Name        string  `json:"name"`
	Points      int     `json:"points"`
	Level       int     `json:"level"`
	Rank        int     `json:"ranking"`
	TotalAlerts int     `json:"totalAlerts"`
	Reported    int     `json:"verified"`
	Unlocked    int     `json:"achievements"`
	Badges      []Badge `json:"badges"`
}

var badgeThresholds = []struct {
	name string
	icon string
	min  int
}{
	{"Novato", "🌱", 1},
	{"Vigilante", "👁️", 3},
	{"Protetor", "🛡️", 5},
	{"Herói", "🦸", 10},
}

// Points = 50 за алерт + очки разблокированных достижений
func Points(alerts []*models.Alert, unlocked []string) int {
	points := len(alerts) * PointsPerAlert
	for _, id := range unlocked {
		if a, ok := Lookup(id); ok {
			points += a.Points
		}
	}
	return points
}

// Level растет на единицу каждые 500 очков
func Level(points int) int {
	return 1 + points/PointsPerLevel
}

// Rank улучшается на 3 позиции за алерт, но не выше первого места
func Rank(alertCount int) int {
	return max(1, 100-alertCount*3)
}

// Compute собирает статистику для пользователя user
func Compute(user string, alerts []*models.Alert, unlocked []string) Stats {
	points := Points(alerts, unlocked)
	reported := 0
	for _, a := range alerts {
		if a.CreatedBy == user {
			reported++
		}
	}
	badges := make([]Badge, len(badgeThresholds))
	for i, b := range badgeThresholds {
		badges[i] = Badge{ID: i + 1, Name: b.name, Icon: b.icon, Earned: len(alerts) >= b.min}
	}
	return Stats{
		Name:        user,
		Points:      points,
		Level:       Level(points),
		Rank:        Rank(len(alerts)),
		TotalAlerts: len(alerts),
		Reported:    reported,
		Unlocked:    len(unlocked),
		Badges:      badges,
	}
}
