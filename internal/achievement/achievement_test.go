package achievement

import (
	"testing"
	"time"

	"github.com/shenikar/alertabh/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertsOf(categories ...string) []*models.Alert {
	out := make([]*models.Alert, len(categories))
	noon := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, c := range categories {
		out[i] = &models.Alert{ID: int64(i + 1), Category: c, CreatedAt: noon}
	}
	return out
}

func ids(list []Achievement) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestEvaluate_FirstAlert(t *testing.T) {
	fresh := Evaluate(Input{Alerts: alertsOf("accident")}, nil)
	assert.Equal(t, []string{"first_alert"}, ids(fresh))
}

func TestEvaluate_SkipsUnlocked(t *testing.T) {
	fresh := Evaluate(Input{Alerts: alertsOf("accident")}, []string{"first_alert"})
	assert.Empty(t, fresh)
}

func TestEvaluate_CountThresholds(t *testing.T) {
	tests := []struct {
		count int
		want  []string
	}{
		{0, nil},
		{4, []string{"first_alert"}},
		{5, []string{"first_alert", "vigilant"}},
		{10, []string{"first_alert", "vigilant", "protector"}},
		{20, []string{"first_alert", "vigilant", "protector", "hero"}},
	}
	for _, tt := range tests {
		cats := make([]string, tt.count)
		for i := range cats {
			cats[i] = "traffic"
		}
		got := ids(Evaluate(Input{Alerts: alertsOf(cats...)}, nil))
		if tt.want == nil {
			assert.Empty(t, got, "count=%d", tt.count)
			continue
		}
		assert.Equal(t, tt.want, got, "count=%d", tt.count)
	}
}

func TestEvaluate_Diversity(t *testing.T) {
	in := Input{Alerts: alertsOf("accident", "blitz", "accident")}
	assert.NotContains(t, ids(Evaluate(in, nil)), "diversity")

	in.Alerts = append(in.Alerts, alertsOf("roadwork")...)
	assert.Contains(t, ids(Evaluate(in, nil)), "diversity")
}

func TestEvaluate_PhotoPremiumSearch(t *testing.T) {
	withPhoto := alertsOf("accident")
	withPhoto[0].Photo = "data:image/png;base64,AAAA"

	got := ids(Evaluate(Input{Alerts: withPhoto, Premium: true, UsedSearch: true}, []string{"first_alert"}))
	assert.Equal(t, []string{"photographer", "premium", "explorer"}, got)
}

func TestEvaluate_NightOwlUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 01:30 UTC = 22:30 em Sao Paulo
	a := &models.Alert{ID: 1, Category: "blitz", CreatedAt: time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)}
	assert.Contains(t, ids(Evaluate(Input{Alerts: []*models.Alert{a}, Location: loc}, nil)), "night_owl")

	// 12:00 UTC = 09:00 em Sao Paulo
	a.CreatedAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.NotContains(t, ids(Evaluate(Input{Alerts: []*models.Alert{a}, Location: loc}, nil)), "night_owl")
}

func TestEvaluate_NightOwlIgnoresUnknownTime(t *testing.T) {
	alerts := []*models.Alert{{ID: 1, Category: "blitz"}}

	fresh := Evaluate(Input{Alerts: alerts, Location: time.UTC}, []string{"first_alert"})
	assert.Empty(t, fresh)
}

func TestIsNightHour(t *testing.T) {
	for h := 0; h < 24; h++ {
		want := h >= 22 || h <= 5
		assert.Equal(t, want, IsNightHour(h), "hour %d", h)
	}
}

func TestCatalog_IsCopy(t *testing.T) {
	c := Catalog()
	c[0].Points = 0
	a, ok := Lookup("first_alert")
	require.True(t, ok)
	assert.Equal(t, 50, a.Points)
}

func TestCatalog_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Catalog() {
		assert.False(t, seen[a.ID], "duplicate %s", a.ID)
		seen[a.ID] = true
	}
}
