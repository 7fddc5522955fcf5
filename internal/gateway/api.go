package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	User  models.UserProfile `json:"user"`
	Token string             `json:"token"`
}

func periodQuery(p models.Period) url.Values {
	return url.Values{"period": []string{string(p)}}
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*AuthResult, error) {
	var res AuthResult
	if err := c.Post(ctx, "/auth/login", creds, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account and returns a token for it.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*AuthResult, error) {
	var res AuthResult
	if err := c.Post(ctx, "/auth/register", reg, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout tells the server that token is no longer in use. The local session
// is already gone by the time this runs, so failures are only returned: no
// notification and no session-expired handling.
func (c *Client) Logout(ctx context.Context, token string) error {
	status, raw, err := c.send(withToken(ctx, token), http.MethodPost, "/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		env, _ := decodeEnvelope(raw)
		return statusError(status, env)
	}
	return nil
}

// CurrentUser returns the profile the current token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (models.UserProfile, error) {
	var user models.UserProfile
	if err := c.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// Usage returns usage records for a period in server order.
func (c *Client) Usage(ctx context.Context, period models.Period) ([]models.UsageRecord, error) {
	var records []models.UsageRecord
	if err := c.Get(ctx, "/usage", periodQuery(period), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Stats returns aggregate counters for a period.
func (c *Client) Stats(ctx context.Context, period models.Period) (*models.StatsSummary, error) {
	var stats models.StatsSummary
	if err := c.Get(ctx, "/usage/stats", periodQuery(period), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Export downloads the usage export for a period as raw bytes.
func (c *Client) Export(ctx context.Context, period models.Period) ([]byte, error) {
	return c.Raw(ctx, http.MethodGet, "/usage/export", periodQuery(period))
}

// RecordUsage submits a single usage row.
func (c *Client) RecordUsage(ctx context.Context, in models.UsageRecordInput) (*models.UsageRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var rec models.UsageRecord
	if err := c.Post(ctx, "/usage", in, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Predictions returns the stored cost forecasts.
func (c *Client) Predictions(ctx context.Context) ([]models.Prediction, error) {
	var preds []models.Prediction
	if err := c.Get(ctx, "/predictions", nil, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

// GeneratePrediction asks the server to compute a fresh forecast.
func (c *Client) GeneratePrediction(ctx context.Context) (*models.Prediction, error) {
	var pred models.Prediction
	if err := c.Post(ctx, "/predictions/generate", struct{}{}, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

// UpdateSettings changes profile fields or the password.
func (c *Client) UpdateSettings(ctx context.Context, update models.SettingsUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	return c.Put(ctx, "/user/settings", update, nil)
}

// APIKeys lists the registered provider keys.
func (c *Client) APIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := c.Get(ctx, "/api-keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// CreateAPIKey registers a provider key.
func (c *Client) CreateAPIKey(ctx context.Context, in models.APIKeyInput) (*models.APIKey, error) {
	if in.Name == "" || in.Provider == "" || in.APIKey == "" {
		return nil, &models.ValidationError{Field: "api_key", Message: "Name, provider and key are required"}
	}
	var key models.APIKey
	if err := c.Post(ctx, "/api-keys", in, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// UpdateAPIKey renames or toggles a key.
func (c *Client) UpdateAPIKey(ctx context.Context, id string, in models.APIKeyInput) (*models.APIKey, error) {
	var key models.APIKey
	if err := c.Put(ctx, "/api-keys/"+url.PathEscape(id), in, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// DeleteAPIKey removes a key.
func (c *Client) DeleteAPIKey(ctx context.Context, id string) error {
	return c.Delete(ctx, "/api-keys/"+url.PathEscape(id))
}
