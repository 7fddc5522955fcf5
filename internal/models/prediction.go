package models

import "time"

// Prediction is a cost forecast produced by the server.
type Prediction struct {
	ID                   string    `json:"id"`
	APIKeyID             string    `json:"api_key_id,omitempty"`
	PredictionDate       time.Time `json:"prediction_date"`
	PredictedDailyCost   float64   `json:"predicted_daily_cost"`
	PredictedWeeklyCost  float64   `json:"predicted_weekly_cost"`
	PredictedMonthlyCost float64   `json:"predicted_monthly_cost"`
	ConfidenceScore      float64   `json:"confidence_score"`
	ModelUsed            string    `json:"model_used"`
	CreatedAt            time.Time `json:"created_at"`
}

// ConfidencePercent returns the confidence score on a 0-100 scale.
func (p Prediction) ConfidencePercent() float64 {
	if p.ConfidenceScore <= 1 {
		return p.ConfidenceScore * 100
	}
	return p.ConfidenceScore
}

// APIKey is a provider key registered with the analytics service. The secret
// itself is never returned, only a preview.
type APIKey struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Provider   string    `json:"provider"`
	KeyPreview string    `json:"key_preview,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// APIKeyInput is the body for creating or updating an API key.
type APIKeyInput struct {
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// Validate checks the fields required to create a key.
func (in APIKeyInput) Validate() error {
	switch {
	case in.Name == "":
		return &ValidationError{Field: "name", Message: "Name is required"}
	case in.Provider == "":
		return &ValidationError{Field: "provider", Message: "Provider is required"}
	case in.APIKey == "":
		return &ValidationError{Field: "apiKey", Message: "API key is required"}
	}
	return nil
}
