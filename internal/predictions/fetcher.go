// Package predictions loads cost forecasts once per view.
package predictions

import (
	"context"
	"sync"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

const defaultErrorMessage = "Unknown error"

// API fetches and generates forecasts.
type API interface {
	Predictions(ctx context.Context) ([]models.Prediction, error)
	GeneratePrediction(ctx context.Context) (*models.Prediction, error)
}

// State is a snapshot of the fetcher outputs.
type State struct {
	Error       string
	Predictions []models.Prediction
	Loading     bool
}

// Fetcher performs a single load with no retry and no refresh.
type Fetcher struct {
	api   API
	state State
	once  sync.Once
	mu    sync.Mutex
}

// New creates a fetcher in the loading state.
func New(api API) *Fetcher {
	return &Fetcher{
		api:   api,
		state: State{Loading: true, Predictions: []models.Prediction{}},
	}
}

// Load fetches the forecasts. Only the first call does any work; later calls
// return the outcome of the first.
func (f *Fetcher) Load(ctx context.Context) State {
	f.once.Do(func() {
		preds, err := f.api.Predictions(ctx)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.state.Loading = false
		if err != nil {
			msg := err.Error()
			if msg == "" {
				msg = defaultErrorMessage
			}
			f.state.Error = msg
			f.state.Predictions = []models.Prediction{}
			logger.Warn("failed to load predictions", "error", err)
			return
		}
		if preds == nil {
			preds = []models.Prediction{}
		}
		f.state.Error = ""
		f.state.Predictions = preds
	})
	return f.State()
}

// Generate asks the server for a new forecast and puts it first in the list.
func (f *Fetcher) Generate(ctx context.Context) (*models.Prediction, error) {
	pred, err := f.api.GeneratePrediction(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	next := make([]models.Prediction, 0, len(f.state.Predictions)+1)
	next = append(next, *pred)
	next = append(next, f.state.Predictions...)
	f.state.Predictions = next
	f.state.Error = ""
	return pred, nil
}

// State returns the current snapshot.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Latest returns the newest forecast, if any.
func (f *Fetcher) Latest() (models.Prediction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.state.Predictions) == 0 {
		return models.Prediction{}, false
	}
	return f.state.Predictions[0], true
}
