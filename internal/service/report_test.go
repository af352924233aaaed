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
	"github.com/shenikar/alertabh/internal/wizard"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestReportService(t *testing.T, delay time.Duration) (*reportService, *appService, appMocks) {
	app, m := newTestAppService(t)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	reports := NewReportService(app, catalog.Default(), logger, delay).(*reportService)
	return reports, app, m
}

// walkToDetails проводит мастер до шага деталей через GPS
func walkToDetails(t *testing.T, r *reportService, category string) {
	t.Helper()
	ctx := context.Background()

	_, err := r.Start(ctx, userSession)
	require.NoError(t, err)

	token, err := r.RequestLocation(ctx, userSession)
	require.NoError(t, err)

	pos := models.Position{Latitude: -19.91, Longitude: -43.95}
	v, err := r.ResolveLocation(ctx, userSession, token, wizard.Fix{Position: &pos})
	require.NoError(t, err)
	require.Equal(t, wizard.AwaitingPhoto, v.Step)

	_, err = r.SkipPhoto(ctx, userSession)
	require.NoError(t, err)

	v, err = r.ChooseCategory(ctx, userSession, category)
	require.NoError(t, err)
	require.Equal(t, wizard.AwaitingDetails, v.Step)
}

func TestReport_SubmitCreatesAlert(t *testing.T) {
	r, app, m := newTestReportService(t, 0)
	ctx := context.Background()
	walkToDetails(t, r, "accident")

	v, err := r.SetDetails(ctx, userSession, wizard.Details{DurationMinutes: 60, Severity: models.SeverityHigh, Description: "  batida leve  "})
	require.NoError(t, err)
	assert.Equal(t, "batida leve", v.Draft.Description)

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(2)

	alert, err := r.Submit(ctx, userSession)
	require.NoError(t, err)
	assert.Equal(t, -19.91, alert.Latitude)
	assert.Equal(t, 60, alert.DurationMinutes)
	assert.Equal(t, models.SeverityHigh, alert.Severity)
	assert.Equal(t, wizard.DefaultLocationLabel, alert.Location)

	assert.Len(t, app.ListAlerts(ctx), 1)

	// мастер закрыт после отправки
	_, err = r.Current(ctx, userSession)
	assert.ErrorIs(t, err, ErrNoActiveReport)
}

func TestReport_CancelLeavesNoTrace(t *testing.T) {
	r, app, _ := newTestReportService(t, 0)
	ctx := context.Background()
	walkToDetails(t, r, "blitz")

	require.NoError(t, r.Cancel(ctx, userSession))

	assert.Empty(t, app.ListAlerts(ctx))
	assert.Empty(t, app.ListNotifications(ctx))

	v, err := r.Start(ctx, userSession)
	require.NoError(t, err)
	assert.Equal(t, wizard.AwaitingLocation, v.Step)
	assert.Equal(t, wizard.NewDraft(), v.Draft)
}

func TestReport_StaleCallbackAfterCancel(t *testing.T) {
	r, _, _ := newTestReportService(t, 0)
	ctx := context.Background()

	_, err := r.Start(ctx, userSession)
	require.NoError(t, err)
	token, err := r.RequestLocation(ctx, userSession)
	require.NoError(t, err)

	require.NoError(t, r.Cancel(ctx, userSession))

	pos := models.Position{Latitude: 1, Longitude: 2}
	_, err = r.ResolveLocation(ctx, userSession, token, wizard.Fix{Position: &pos})
	assert.ErrorIs(t, err, wizard.ErrStaleCallback)

	// и после нового старта старый токен все еще устаревший
	_, err = r.Start(ctx, userSession)
	require.NoError(t, err)
	v, err := r.ResolveLocation(ctx, userSession, token, wizard.Fix{Position: &pos})
	assert.ErrorIs(t, err, wizard.ErrStaleCallback)
	assert.Nil(t, v.Draft.Position)
}

func TestReport_LocationFailureAllowsRetry(t *testing.T) {
	r, _, _ := newTestReportService(t, 0)
	ctx := context.Background()

	_, err := r.Start(ctx, userSession)
	require.NoError(t, err)
	token, err := r.RequestLocation(ctx, userSession)
	require.NoError(t, err)

	v, err := r.ResolveLocation(ctx, userSession, token, wizard.Fix{Failure: wizard.FailureDenied})
	var locErr *wizard.LocationError
	require.ErrorAs(t, err, &locErr)
	assert.Equal(t, wizard.FailureDenied, locErr.Kind)
	assert.Equal(t, wizard.AwaitingLocation, v.Step)

	token, err = r.RequestLocation(ctx, userSession)
	require.NoError(t, err)
	pos := models.Position{Latitude: -19.9, Longitude: -43.9}
	v, err = r.ResolveLocation(ctx, userSession, token, wizard.Fix{Position: &pos})
	require.NoError(t, err)
	assert.True(t, v.Draft.GPSLocked)
}

func TestReport_SearchLocation(t *testing.T) {
	r, app, m := newTestReportService(t, 0)
	ctx := context.Background()

	_, err := r.Start(ctx, userSession)
	require.NoError(t, err)

	candidates := []geocoding.Candidate{
		{Latitude: -19.93, Longitude: -43.93, DisplayName: "Praça Sete"},
		{Latitude: -19.94, Longitude: -43.94, DisplayName: "Savassi"},
	}
	m.geocoder.EXPECT().Search(ctx, "centro").Return(candidates, nil)
	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(nil)
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()

	v, got, err := r.SearchLocation(ctx, userSession, LocationSearch{Query: "centro", Index: 1})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, wizard.AwaitingLocation, v.Step)
	assert.Equal(t, "Savassi", v.Draft.LocationLabel)
	assert.False(t, v.Draft.GPSLocked)

	notes := app.ListNotifications(ctx)
	require.NotEmpty(t, notes)
	assert.Equal(t, models.NotificationSearch, notes[len(notes)-1].Kind)
	assert.Equal(t, "Savassi", notes[len(notes)-1].Description)

	v, err = r.ConfirmLocation(ctx, userSession)
	require.NoError(t, err)
	assert.Equal(t, wizard.AwaitingPhoto, v.Step)
}

func TestReport_SearchLocationBadIndex(t *testing.T) {
	r, app, m := newTestReportService(t, 0)
	ctx := context.Background()

	_, err := r.Start(ctx, userSession)
	require.NoError(t, err)

	m.geocoder.EXPECT().Search(ctx, "centro").Return([]geocoding.Candidate{{DisplayName: "Centro"}}, nil)

	_, _, err = r.SearchLocation(ctx, userSession, LocationSearch{Query: "centro", Index: 3})
	assert.ErrorIs(t, err, ErrCandidateIndex)

	v, err := r.Current(ctx, userSession)
	require.NoError(t, err)
	assert.Nil(t, v.Draft.Position)

	// неудачный выбор не считается поиском
	assert.False(t, app.state.UsedSearch)
	assert.Empty(t, app.ListNotifications(ctx))
	assert.Empty(t, app.state.Unlocked)
}

func TestReport_SearchLocationWrongStepCommitsNothing(t *testing.T) {
	r, app, m := newTestReportService(t, 0)
	ctx := context.Background()
	walkToDetails(t, r, "blitz")

	m.geocoder.EXPECT().Search(ctx, "centro").Return([]geocoding.Candidate{{DisplayName: "Centro"}}, nil)

	_, _, err := r.SearchLocation(ctx, userSession, LocationSearch{Query: "centro"})
	assert.ErrorIs(t, err, wizard.ErrInvalidTransition)
	assert.False(t, app.state.UsedSearch)
	assert.Empty(t, app.ListNotifications(ctx))
}

func TestReport_NoActiveFlow(t *testing.T) {
	r, _, _ := newTestReportService(t, 0)
	ctx := context.Background()

	_, err := r.SkipPhoto(ctx, userSession)
	assert.ErrorIs(t, err, ErrNoActiveReport)
	_, err = r.Submit(ctx, userSession)
	assert.ErrorIs(t, err, ErrNoActiveReport)
}

func TestReport_WrongStep(t *testing.T) {
	r, _, _ := newTestReportService(t, 0)
	ctx := context.Background()

	_, err := r.Start(ctx, userSession)
	require.NoError(t, err)

	_, err = r.ChooseCategory(ctx, userSession, "blitz")
	assert.ErrorIs(t, err, wizard.ErrInvalidTransition)

	_, err = r.Submit(ctx, userSession)
	assert.ErrorIs(t, err, wizard.ErrCategoryRequired)
}

func TestReport_FlowsArePerUser(t *testing.T) {
	r, _, _ := newTestReportService(t, 0)
	ctx := context.Background()
	walkToDetails(t, r, "traffic")

	_, err := r.Current(ctx, adminSession)
	assert.ErrorIs(t, err, ErrNoActiveReport)

	v, err := r.Current(ctx, userSession)
	require.NoError(t, err)
	assert.Equal(t, "traffic", v.Draft.Category)
}

func TestReport_SubmitCanceledDuringDelay(t *testing.T) {
	r, app, _ := newTestReportService(t, time.Minute)
	walkToDetails(t, r, "flooding")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Submit(ctx, userSession)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, app.ListAlerts(context.Background()))

	// черновик сохранен, можно отправить снова
	v, err := r.Current(context.Background(), userSession)
	require.NoError(t, err)
	assert.Equal(t, wizard.AwaitingDetails, v.Step)
	assert.Equal(t, "flooding", v.Draft.Category)
}

func TestReport_SubmitPersistFailureStillCreates(t *testing.T) {
	r, app, m := newTestReportService(t, 0)
	ctx := context.Background()
	walkToDetails(t, r, "hazard")

	m.repo.EXPECT().SaveRecords(ctx, testStateKey, gomock.Any()).Return(errors.New("read-only"))
	m.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil).AnyTimes()

	alert, err := r.Submit(ctx, userSession)
	require.Error(t, err)
	assert.True(t, IsPersistError(err))
	require.NotNil(t, alert)
	assert.Len(t, app.ListAlerts(ctx), 1)

	_, err = r.Current(ctx, userSession)
	assert.ErrorIs(t, err, ErrNoActiveReport)
}
