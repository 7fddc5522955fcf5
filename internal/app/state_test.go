package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
	"github.com/j-veylop/usage-dashboard-tui/internal/poller"
	"github.com/j-veylop/usage-dashboard-tui/internal/predictions"
)

func TestNewState(t *testing.T) {
	s := NewState()
	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.IsInitialLoading(), "starts waiting on the session check")
	assert.Empty(t, s.GetNotifications())
}

func TestState_Loading(t *testing.T) {
	s := NewState()

	s.SetLoading("usage", true)
	s.SetLoading("initial", false)
	assert.True(t, s.AnyLoading())
	assert.True(t, s.IsLoading("usage"))

	s.SetLoading("usage", false)
	assert.False(t, s.AnyLoading())

	s.SetLoading("export", true)
	assert.True(t, s.Loading.Export)
	assert.False(t, s.IsLoading("predictions"))

	s.SetLoading("bogus", true)
	assert.False(t, s.IsLoading("bogus"), "unknown resources are ignored")
}

func TestState_Session(t *testing.T) {
	s := NewState()
	s.SetSession(models.Session{
		Token:           "tok",
		User:            models.UserProfile{"name": "Ada"},
		IsAuthenticated: true,
	})

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "Ada", s.GetSession().User.DisplayName())
}

func TestState_SetUsage_MirrorsLoading(t *testing.T) {
	s := NewState()

	s.SetUsage(poller.State{Period: models.Period30Days, Loading: true})
	assert.True(t, s.Loading.Usage)

	s.SetUsage(poller.State{
		Period:    models.Period30Days,
		UpdatedAt: time.Now(),
		Data:      []models.UsageRecord{{ModelName: "gpt-4o"}},
	})
	assert.False(t, s.Loading.Usage)
	assert.Len(t, s.GetUsage().Data, 1)
}

func TestState_Predictions(t *testing.T) {
	s := NewState()

	s.SetPredictions(predictions.State{Loading: true})
	assert.True(t, s.Loading.Predictions)

	s.SetPredictions(predictions.State{Predictions: []models.Prediction{{ID: "p1"}}})
	assert.False(t, s.Loading.Predictions)
	assert.Len(t, s.GetPredictions().Predictions, 1)
}

func TestState_Reset(t *testing.T) {
	s := NewState()
	s.SetUsage(poller.State{
		Period:      models.Period90Days,
		AutoRefresh: true,
		Loading:     true,
		Data:        []models.UsageRecord{{ModelName: "gpt-4o"}},
	})
	s.SetPredictions(predictions.State{Predictions: []models.Prediction{{ID: "p1"}}})

	s.Reset()

	usage := s.GetUsage()
	assert.Empty(t, usage.Data)
	assert.Equal(t, models.Period90Days, usage.Period, "period survives sign-out")
	assert.True(t, usage.AutoRefresh, "auto-refresh survives sign-out")
	assert.Empty(t, s.GetPredictions().Predictions)
	assert.False(t, s.Loading.Usage)
}
