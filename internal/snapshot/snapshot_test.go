package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)

func sampleState() *models.AppState {
	s := models.NewAppState()
	s.Alerts = []*models.Alert{
		{
			ID: 1775154600000, Latitude: -19.92, Longitude: -43.94, Category: "accident",
			Severity: models.SeverityHigh, DurationMinutes: 45, Location: "Minha Localização",
			CreatedBy: "João Silva", CreatedAt: now.Add(-time.Hour), Verified: 1,
			Photo: "data:image/png;base64,AAAA", Description: "batida",
		},
		{
			ID: 1775154600001, Latitude: -19.93, Longitude: -43.95, Category: "blitz",
			Severity: models.SeverityMedium, DurationMinutes: 30, Location: "Savassi",
			CreatedBy: "Administrador", CreatedAt: now, Verified: 1,
		},
	}
	s.Notifications = []*models.Notification{
		{ID: 1775154600003, Kind: models.NotificationAchievement, Title: "Conquista Desbloqueada!", Description: "🚨 Primeiro Alerta (+50 pts)", CreatedAt: now},
		{ID: 1775154600002, Kind: models.NotificationCreated, Title: "Alerta Criado!", Description: "Acidente reportado com sucesso", Read: true, CreatedAt: now.Add(-time.Hour)},
	}
	s.Unlocked = []string{"first_alert", "photographer"}
	s.Theme = "neon"
	s.Premium = true
	s.Settings.SoundEnabled = false
	s.Settings.MapStyle = "satellite"
	s.UsedSearch = true
	return s
}

func TestRecords_RoundTrip(t *testing.T) {
	want := sampleState()

	records, err := Encode(want, now)
	require.NoError(t, err)
	require.Len(t, records, 3)

	got, err := Decode(records)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_NoRecordsGivesDefaults(t *testing.T) {
	got, err := Decode(nil)
	require.NoError(t, err)
	if diff := cmp.Diff(models.NewAppState(), got); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_OlderProfileWithoutSettings(t *testing.T) {
	records := []Record{{
		Kind:          KindProfile,
		SchemaVersion: 1,
		Payload:       json.RawMessage(`{"unlockedAchievements":["first_alert","first_alert"],"isPremium":true}`),
	}}

	got, err := Decode(records)
	require.NoError(t, err)
	assert.Equal(t, []string{"first_alert"}, got.Unlocked)
	assert.Equal(t, "dark", got.Theme)
	assert.True(t, got.Premium)
	assert.Equal(t, models.DefaultSettings(), got.Settings)
	assert.Empty(t, got.Alerts)
}

func TestDecode_NewerVersionRejected(t *testing.T) {
	_, err := Decode([]Record{{Kind: KindAlerts, SchemaVersion: 99, Payload: json.RawMessage(`[]`)}})
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecode_ZeroVersionRejected(t *testing.T) {
	for _, v := range []int{0, -1} {
		_, err := Decode([]Record{{Kind: KindProfile, SchemaVersion: v, Payload: json.RawMessage(`{}`)}})
		assert.ErrorIs(t, err, ErrInvalidVersion, "version %d", v)
	}
}

func TestDecode_MissingCreatedAtTakenFromID(t *testing.T) {
	records := []Record{{
		Kind:          KindAlerts,
		SchemaVersion: 1,
		Payload:       json.RawMessage(`[{"id":1741608000000,"type":"blitz"},{"id":0,"type":"blitz"}]`),
	}}

	got, err := Decode(records)
	require.NoError(t, err)
	require.Len(t, got.Alerts, 2)
	assert.True(t, got.Alerts[0].CreatedAt.Equal(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.True(t, got.Alerts[1].CreatedAt.IsZero())
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode([]Record{{Kind: "badges", SchemaVersion: 1}})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecode_MalformedPayload(t *testing.T) {
	_, err := Decode([]Record{{Kind: KindAlerts, SchemaVersion: 1, Payload: json.RawMessage(`{"oops":`)}})
	assert.Error(t, err)
}

func TestLegacy_RoundTrip(t *testing.T) {
	want := sampleState()

	data, err := MarshalLegacy(want, now)
	require.NoError(t, err)

	got, err := UnmarshalLegacy(data)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("legacy round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLegacy_WritesDocumentedFields(t *testing.T) {
	data, err := MarshalLegacy(sampleState(), now)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"alerts", "notifications", "selectedTheme", "isPremium", "unlockedAchievements", "settings", "timestamp"} {
		assert.Contains(t, fields, key)
	}

	var notifications []map[string]any
	require.NoError(t, json.Unmarshal(fields["notifications"], &notifications))
	assert.Equal(t, "Agora", notifications[0]["time"])
	assert.Equal(t, "há 1 h", notifications[1]["time"])
}

func TestLegacy_MissingFieldsDefault(t *testing.T) {
	got, err := UnmarshalLegacy([]byte(`{"alerts":[{"id":1700000000000,"lat":-19.9,"lng":-43.9,"type":"blitz","time":"Agora","verified":1,"location":"Minha Localização","createdBy":"João Silva","createdAt":"2023-11-14T22:13:20.000Z"}],"somethingNew":42}`))
	require.NoError(t, err)

	assert.False(t, got.Premium)
	assert.Equal(t, "dark", got.Theme)
	assert.Empty(t, got.Notifications)
	assert.Empty(t, got.Unlocked)
	assert.Equal(t, models.DefaultSettings(), got.Settings)
	require.Len(t, got.Alerts, 1)
	assert.Equal(t, models.SeverityMedium, got.Alerts[0].Severity)
	assert.Equal(t, 30, got.Alerts[0].DurationMinutes)
}

func TestLegacy_EmptyObject(t *testing.T) {
	got, err := UnmarshalLegacy([]byte(`{}`))
	require.NoError(t, err)
	if diff := cmp.Diff(models.NewAppState(), got); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLegacy_Malformed(t *testing.T) {
	_, err := UnmarshalLegacy([]byte(`not json`))
	assert.Error(t, err)
}

func TestLegacy_MissingCreatedAtTakenFromID(t *testing.T) {
	got, err := UnmarshalLegacy([]byte(`{"alerts":[{"id":1741608000000,"lat":-19.9,"lng":-43.9,"type":"blitz","location":"Centro"}]}`))
	require.NoError(t, err)

	require.Len(t, got.Alerts, 1)
	assert.Equal(t, int64(1741608000000), got.Alerts[0].CreatedAt.UnixMilli())
}

func TestLegacy_OldCategoryIDs(t *testing.T) {
	got, err := UnmarshalLegacy([]byte(`{"alerts":[
		{"id":1,"type":"acidente"},
		{"id":2,"type":"congestionamento"},
		{"id":3,"type":"obra"},
		{"id":4,"type":"blitz"}
	]}`))
	require.NoError(t, err)

	categories := make([]string, 0, len(got.Alerts))
	for _, a := range got.Alerts {
		categories = append(categories, a.Category)
	}
	assert.Equal(t, []string{"accident", "traffic", "roadwork", "blitz"}, categories)
}
