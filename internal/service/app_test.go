package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shenikar/alertabh/internal/catalog"
	"github.com/shenikar/alertabh/internal/geocoding"
	"github.com/shenikar/alertabh/internal/models"
	"github.com/shenikar/alertabh/internal/service/mocks"
	"github.com/shenikar/alertabh/internal/snapshot"
	"github.com/shenikar/alertabh/internal/webhook"
	webhook_mocks "github.com/shenikar/alertabh/internal/webhook/mocks"
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testStateKey = "alertaBH_data"

var (
	adminSession = models.Session{Login: "admin", Name: "Administrador", Role: models.RoleAdmin}
	userSession  = models.Session{Login: "user", Name: "João Silva", Role: models.RoleUser}
	// полдень, чтобы не сработало ночное достижение
	testNoon = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
)

type appMocks struct {
	repo      *mocks.MockStateRepository
	geocoder  *mocks.MockGeocoder
	publisher *webhook_mocks.MockPublisher
}

// newTestAppService - вспомогательная функция для создания сервиса с моками
func newTestAppService(t *testing.T) (*appService, appMocks) {
	ctrl := gomock.NewController(t)
	m := appMocks{
		repo:      mocks.NewMockStateRepository(ctrl),
		geocoder:  mocks.NewMockGeocoder(ctrl),
		publisher: webhook_mocks.NewMockPublisher(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	svc := NewAppService(m.repo, m.publisher, m.geocoder, catalog.Default(), logger, Options{
		StateKey: testStateKey,
		Location: time.UTC,
	}).(*appService)
	svc.now = func() time.Time { return testNoon }
	return svc, m
}

func accidentDraft() wizard.Draft {
	d := wizard.NewDraft()
	d.Category = "accident"
	return d
}

func TestCreateAlert_FirstAlertScenario(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Len(3)).Return(nil).Times(1)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(2)

	alert, err := svc.CreateAlert(ctx, userSession, accidentDraft())
	require.NoError(t, err)
	require.NotNil(t, alert)

	assert.Equal(t, "accident", alert.Category)
	assert.Equal(t, wizard.DefaultLocationLabel, alert.Location)
	assert.Equal(t, wizard.CityCenter.Latitude, alert.Latitude)
	assert.Equal(t, "João Silva", alert.CreatedBy)

	profile := svc.Profile(ctx, userSession)
	assert.Equal(t, 1, profile.Stats.TotalAlerts)
	assert.Equal(t, 100, profile.Stats.Points)
	assert.Equal(t, []string{"first_alert"}, svc.state.Unlocked)

	notes := svc.ListNotifications(ctx)
	require.Len(t, notes, 2)
	// новые первыми: достижение разблокировано после создания алерта
	assert.Equal(t, models.NotificationAchievement, notes[0].Kind)
	assert.Equal(t, models.NotificationCreated, notes[1].Kind)
	assert.Equal(t, "Acidente reportado com sucesso", notes[1].Description)
	assert.Equal(t, "Agora", notes[1].Time)
}

func TestCreateAlert_PublishesEvents(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	var got []webhook.Event
	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, ev webhook.Event) error {
		got = append(got, ev)
		return nil
	}).Times(2)

	_, err := svc.CreateAlert(ctx, userSession, accidentDraft())
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, webhook.EventAlertCreated, got[0].Type)
	require.NotNil(t, got[0].Alert)
	assert.Equal(t, "accident", got[0].Alert.Category)
	assert.Equal(t, webhook.EventAchievementUnlocked, got[1].Type)
	assert.Equal(t, "first_alert", got[1].Achievement)
}

func TestCreateAlert_PublishErrorIsIgnored(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("redis down")).AnyTimes()

	alert, err := svc.CreateAlert(ctx, userSession, accidentDraft())
	require.NoError(t, err)
	assert.NotNil(t, alert)
}

func TestCreateAlert_UnknownCategory(t *testing.T) {
	svc, _ := newTestAppService(t)
	d := wizard.NewDraft()
	d.Category = "meteor"

	_, err := svc.CreateAlert(context.Background(), userSession, d)
	assert.ErrorIs(t, err, wizard.ErrUnknownCategory)
	assert.Empty(t, svc.ListAlerts(context.Background()))
}

func TestCreateAlert_PersistErrorKeepsState(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(errors.New("disk full"))
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()

	alert, err := svc.CreateAlert(ctx, userSession, accidentDraft())
	require.Error(t, err)
	assert.True(t, IsPersistError(err))
	require.NotNil(t, alert)

	assert.Len(t, svc.ListAlerts(ctx), 1)
	assert.Len(t, svc.ListNotifications(ctx), 2)
}

func TestCreateAlert_UniqueIDs(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil).AnyTimes()
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()

	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		a, err := svc.CreateAlert(ctx, userSession, accidentDraft())
		require.NoError(t, err)
		assert.False(t, seen[a.ID], "duplicate id %d", a.ID)
		seen[a.ID] = true
	}
	for _, n := range svc.ListNotifications(ctx) {
		assert.False(t, seen[n.ID], "notification reused id %d", n.ID)
		seen[n.ID] = true
	}
}

func seedAlert(t *testing.T, svc *appService, m appMocks, category string) *models.Alert {
	t.Helper()
	ctx := context.Background()
	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()

	d := wizard.NewDraft()
	d.Category = category
	a, err := svc.CreateAlert(ctx, userSession, d)
	require.NoError(t, err)
	return a
}

func TestDeleteAlert_NonAdminForbidden(t *testing.T) {
	svc, m := newTestAppService(t)
	a := seedAlert(t, svc, m, "blitz")
	before := svc.ListNotifications(context.Background())

	err := svc.DeleteAlert(context.Background(), userSession, a.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, svc.ListAlerts(context.Background()), 1)
	assert.Equal(t, before, svc.ListNotifications(context.Background()))
}

func TestDeleteAlert_RequiresConfirmation(t *testing.T) {
	svc, m := newTestAppService(t)
	a := seedAlert(t, svc, m, "blitz")

	err := svc.DeleteAlert(context.Background(), adminSession, a.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Len(t, svc.ListAlerts(context.Background()), 1)
}

func TestDeleteAlert_NotFound(t *testing.T) {
	svc, _ := newTestAppService(t)
	err := svc.DeleteAlert(context.Background(), adminSession, 42, true)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestDeleteAlert_AdminConfirmed(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()
	a := seedAlert(t, svc, m, "blitz")
	before := len(svc.ListNotifications(ctx))

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)

	err := svc.DeleteAlert(ctx, adminSession, a.ID, true)
	require.NoError(t, err)

	assert.Empty(t, svc.ListAlerts(ctx))
	notes := svc.ListNotifications(ctx)
	require.Len(t, notes, before+1)
	assert.Equal(t, models.NotificationRemoved, notes[0].Kind)
	assert.Equal(t, "Alerta Removido", notes[0].Title)
	assert.Equal(t, "Blitz Policial em Minha Localização", notes[0].Description)
}

func TestDeleteAlert_AchievementsStayUnlocked(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	var ids []int64
	for _, c := range []string{"blitz", "accident", "flooding"} {
		ids = append(ids, seedAlert(t, svc, m, c).ID)
	}
	assert.True(t, svc.state.IsUnlocked("diversity"))

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil).Times(len(ids))
	for _, id := range ids {
		require.NoError(t, svc.DeleteAlert(ctx, adminSession, id, true))
	}

	assert.Empty(t, svc.ListAlerts(ctx))
	assert.True(t, svc.state.IsUnlocked("diversity"))
	assert.True(t, svc.state.IsUnlocked("first_alert"))
}

func TestLoad_EmptyStoreGivesDefaults(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().LoadRecords(ctx, testStateKey).Return(nil, nil)

	require.NoError(t, svc.Load(ctx))
	assert.Empty(t, svc.ListAlerts(ctx))
	assert.Empty(t, svc.ListNotifications(ctx))
	assert.Equal(t, models.DefaultSettings(), svc.Settings(ctx))
	assert.Equal(t, models.DefaultTheme, svc.Profile(ctx, userSession).Theme)
}

func TestLoad_DoesNotReevaluate(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	state := models.NewAppState()
	state.Alerts = append(state.Alerts, &models.Alert{ID: 7, Category: "blitz", Severity: models.SeverityHigh, DurationMinutes: 30, CreatedAt: testNoon})
	records, err := snapshot.Encode(state, testNoon)
	require.NoError(t, err)

	m.repo.EXPECT().LoadRecords(ctx, testStateKey).Return(records, nil)

	require.NoError(t, svc.Load(ctx))
	assert.Len(t, svc.ListAlerts(ctx), 1)
	assert.Empty(t, svc.state.Unlocked)
}

func TestLoad_RepositoryError(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().LoadRecords(ctx, testStateKey).Return(nil, errors.New("connection refused"))

	err := svc.Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRestore_NoBackup(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().LoadRecords(ctx, testStateKey).Return([]snapshot.Record{}, nil)

	assert.ErrorIs(t, svc.Restore(ctx, userSession), ErrNoBackup)
}

func TestRestore_ReevaluatesAchievements(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	state := models.NewAppState()
	state.Alerts = append(state.Alerts, &models.Alert{ID: 7, Category: "blitz", Severity: models.SeverityHigh, DurationMinutes: 30, CreatedAt: testNoon})
	records, err := snapshot.Encode(state, testNoon)
	require.NoError(t, err)

	m.repo.EXPECT().LoadRecords(ctx, testStateKey).Return(records, nil)
	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	require.NoError(t, svc.Restore(ctx, userSession))
	assert.Equal(t, []string{"first_alert"}, svc.state.Unlocked)

	// новый алерт не должен повторить id из восстановленного состояния
	a := seedAlert(t, svc, m, "traffic")
	assert.Greater(t, a.ID, int64(7))
}

func TestExportImport_RoundTrip(t *testing.T) {
	src, m := newTestAppService(t)
	ctx := context.Background()
	seedAlert(t, src, m, "roadwork")

	data, err := src.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unlockedAchievements"`)

	dst, dm := newTestAppService(t)
	dm.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)

	require.NoError(t, dst.Import(ctx, userSession, data))
	assert.Equal(t, src.ListAlerts(ctx), dst.ListAlerts(ctx))
	assert.Equal(t, src.state.Unlocked, dst.state.Unlocked)
}

func TestImport_AlertWithoutCreatedAt(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()

	// 2025-03-10 12:00 UTC
	blob := `{"alerts":[{"id":1741608000000,"type":"acidente","lat":-19.9,"lng":-43.9,"location":"Centro","createdBy":"João Silva"}]}`
	require.NoError(t, svc.Import(ctx, userSession, []byte(blob)))

	assert.Equal(t, []string{"first_alert"}, svc.state.Unlocked)
	alerts := svc.ListAlerts(ctx)
	require.Len(t, alerts, 1)
	assert.Equal(t, "accident", alerts[0].Category)
	assert.Equal(t, int64(1741608000000), alerts[0].CreatedAt.UnixMilli())
}

func TestLoad_KeepsUnsavedChanges(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(errors.New("disk full"))
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()
	_, err := svc.CreateAlert(ctx, userSession, accidentDraft())
	require.True(t, IsPersistError(err))

	// хранилище не читается, пока изменения не сохранены
	require.NoError(t, svc.Load(ctx))
	assert.Len(t, svc.ListAlerts(ctx), 1)

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	require.NoError(t, svc.MarkAllNotificationsRead(ctx))

	state := models.NewAppState()
	records, err := snapshot.Encode(state, testNoon)
	require.NoError(t, err)
	m.repo.EXPECT().LoadRecords(ctx, testStateKey).Return(records, nil)

	require.NoError(t, svc.Load(ctx))
	assert.Empty(t, svc.ListAlerts(ctx))
}

func TestImport_Malformed(t *testing.T) {
	svc, _ := newTestAppService(t)
	err := svc.Import(context.Background(), userSession, []byte(`{"alerts": 5`))
	require.Error(t, err)
	assert.Empty(t, svc.ListAlerts(context.Background()))
}

func TestNotifications_ReadAndDelete(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()
	seedAlert(t, svc, m, "hazard")

	notes := svc.ListNotifications(ctx)
	require.Len(t, notes, 2)

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil).Times(3)

	require.NoError(t, svc.MarkNotificationRead(ctx, notes[1].ID))
	// повторная отметка ничего не сохраняет
	require.NoError(t, svc.MarkNotificationRead(ctx, notes[1].ID))
	require.NoError(t, svc.MarkAllNotificationsRead(ctx))
	// все уже прочитаны, сохранение не нужно
	require.NoError(t, svc.MarkAllNotificationsRead(ctx))

	for _, n := range svc.ListNotifications(ctx) {
		assert.True(t, n.Read)
	}

	require.NoError(t, svc.DeleteNotification(ctx, notes[0].ID))
	assert.Len(t, svc.ListNotifications(ctx), 1)

	assert.ErrorIs(t, svc.DeleteNotification(ctx, 999), ErrNotificationNotFound)
	assert.ErrorIs(t, svc.MarkNotificationRead(ctx, 999), ErrNotificationNotFound)
}

func TestThemes_PremiumGate(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SelectTheme(ctx, "neon"), ErrPremiumRequired)
	assert.Equal(t, models.DefaultTheme, svc.Profile(ctx, userSession).Theme)

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil).Times(2)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	require.NoError(t, svc.PurchasePremium(ctx, userSession))
	assert.True(t, svc.state.IsUnlocked("premium"))

	require.NoError(t, svc.SelectTheme(ctx, "neon"))
	assert.Equal(t, "neon", svc.Profile(ctx, userSession).Theme)

	for _, th := range svc.Themes(ctx) {
		assert.True(t, th.Available, th.ID)
		assert.Equal(t, th.ID == "neon", th.Selected)
	}
}

func TestSelectTheme_Unknown(t *testing.T) {
	svc, _ := newTestAppService(t)
	assert.ErrorIs(t, svc.SelectTheme(context.Background(), "vaporwave"), catalog.ErrUnknownTheme)
}

func TestUpdateSettings_Validation(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	bad := models.DefaultSettings()
	bad.NotificationRadiusKm = 0
	_, err := svc.UpdateSettings(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	bad = models.DefaultSettings()
	bad.MapStyle = "watercolor"
	_, err = svc.UpdateSettings(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)

	good := models.DefaultSettings()
	good.MapStyle = "satellite"
	good.NotificationRadiusKm = 10
	got, err := svc.UpdateSettings(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, good, got)

	cfg, err := svc.MapConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "satellite", cfg.Style)
	assert.Equal(t, DefaultZoom, cfg.Zoom)
	assert.Equal(t, wizard.CityCenter, cfg.Center)
}

func TestSearch_Success(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	candidates := []geocoding.Candidate{{Latitude: -19.93, Longitude: -43.93, DisplayName: "Praça da Liberdade"}}
	m.geocoder.EXPECT().Search(ctx, "praça da liberdade").Return(candidates, nil)
	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	got, err := svc.Search(ctx, userSession, "praça da liberdade")
	require.NoError(t, err)
	assert.Equal(t, candidates, got)
	assert.True(t, svc.state.IsUnlocked("explorer"))

	notes := svc.ListNotifications(ctx)
	require.Len(t, notes, 2)
	assert.Equal(t, models.NotificationSearch, notes[1].Kind)
	assert.Equal(t, "Praça da Liberdade", notes[1].Description)
}

func TestSearch_FailureLeavesStateUnchanged(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	m.geocoder.EXPECT().Search(ctx, "lugar nenhum").Return(nil, geocoding.ErrNoResults)

	_, err := svc.Search(ctx, userSession, "lugar nenhum")
	assert.ErrorIs(t, err, geocoding.ErrNoResults)
	assert.False(t, svc.state.UsedSearch)
	assert.Empty(t, svc.ListNotifications(ctx))
}

func TestOrderFuel(t *testing.T) {
	svc, m := newTestAppService(t)
	ctx := context.Background()

	quote, err := svc.OrderFuel(ctx, userSession, "gasolina", 5, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Equal(t, int64(4445), quote.TotalCents)
	assert.Empty(t, svc.ListNotifications(ctx))

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, ev webhook.Event) error {
		assert.Equal(t, webhook.EventFuelOrdered, ev.Type)
		require.NotNil(t, ev.Notice)
		return nil
	})

	_, err = svc.OrderFuel(ctx, userSession, "gasolina", 5, true)
	require.NoError(t, err)

	notes := svc.ListNotifications(ctx)
	require.Len(t, notes, 1)
	assert.Equal(t, "Pedido Confirmado!", notes[0].Title)
	assert.Equal(t, "5L de Gasolina Comum - R$ 44.45", notes[0].Description)
}

func TestOrderFuel_UnknownFuel(t *testing.T) {
	svc, _ := newTestAppService(t)
	_, err := svc.OrderFuel(context.Background(), userSession, "querosene", 5, true)
	assert.ErrorIs(t, err, catalog.ErrUnknownFuel)
}
