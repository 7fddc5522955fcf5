package models

import (
	"errors"
	"testing"
)

func TestPeriod_Label(t *testing.T) {
	tests := []struct {
		name string
		p    Period
		want string
	}{
		{"24h", Period24Hours, "Last 24 Hours"},
		{"7d", Period7Days, "Last 7 Days"},
		{"30d", Period30Days, "Last 30 Days"},
		{"90d", Period90Days, "Last 90 Days"},
		{"Unknown", Period("1y"), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Label(); got != tt.want {
				t.Errorf("Period.Label() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriod_Next(t *testing.T) {
	tests := []struct {
		name string
		p    Period
		want Period
	}{
		{"24h -> 7d", Period24Hours, Period7Days},
		{"7d -> 30d", Period7Days, Period30Days},
		{"30d -> 90d", Period30Days, Period90Days},
		{"90d -> 24h", Period90Days, Period24Hours},
		{"unknown -> default", Period("x"), DefaultPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Next(); got != tt.want {
				t.Errorf("Period.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriod_Prev(t *testing.T) {
	if got := Period24Hours.Prev(); got != Period90Days {
		t.Errorf("Period24Hours.Prev() = %v, want %v", got, Period90Days)
	}
	if got := Period30Days.Prev(); got != Period7Days {
		t.Errorf("Period30Days.Prev() = %v, want %v", got, Period7Days)
	}
}

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods {
		got, err := ParsePeriod(string(p))
		if err != nil || got != p {
			t.Errorf("ParsePeriod(%q) = %v, %v", p, got, err)
		}
	}
	if _, err := ParsePeriod("1y"); err == nil {
		t.Error("ParsePeriod(\"1y\") should fail")
	}
}

func TestPeriod_Duration(t *testing.T) {
	if got := Period7Days.Duration().Hours(); got != 168 {
		t.Errorf("Period7Days.Duration() = %vh, want 168h", got)
	}
	if got := Period("x").Duration(); got != 0 {
		t.Errorf("unknown Duration() = %v, want 0", got)
	}
}

func TestPasswordValid(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"abc12345", false},
		{"Abc12345", false},
		{"abc!2345", false},
		{"Ab!1", false},
		{"Secr3t!x", true},
		{"ABCDEFG!", false},
		{"Passw0rd ", true},
		{"Xbc!éfg", false},
		{"Xbc!éfgh", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			if got := PasswordValid(tt.password); got != tt.want {
				t.Errorf("PasswordValid(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestRegistration_Validate(t *testing.T) {
	r := Registration{Name: "Ada", Email: "a@b.com", Password: "abc12345"}
	err := r.Validate()
	if err == nil {
		t.Fatal("expected weak password to be rejected")
	}
	if err.Error() != WeakPasswordMessage {
		t.Errorf("message = %q, want %q", err.Error(), WeakPasswordMessage)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected errors.Is(err, ErrInvalidInput)")
	}

	r.Password = "Secr3t!!"
	if err := r.Validate(); err != nil {
		t.Errorf("valid registration rejected: %v", err)
	}

	r.Name = " "
	if err := r.Validate(); err == nil {
		t.Error("missing name should be rejected")
	}
}

func TestCredentials_Validate(t *testing.T) {
	if err := (Credentials{Email: "a@b.com", Password: "x"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Credentials{Password: "x"}).Validate(); err == nil {
		t.Error("missing email should be rejected")
	}
	if err := (Credentials{Email: "a@b.com"}).Validate(); err == nil {
		t.Error("missing password should be rejected")
	}
}

func TestSettingsUpdate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		update  SettingsUpdate
		wantMsg string
	}{
		{"name only", SettingsUpdate{Name: "Ada"}, ""},
		{"matching passwords", SettingsUpdate{Password: "x", ConfirmPassword: "x"}, ""},
		{"mismatch", SettingsUpdate{Password: "x", ConfirmPassword: "y"}, PasswordMismatchMessage},
		{"empty", SettingsUpdate{}, "Nothing to update"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.update.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantMsg {
				t.Errorf("Validate() = %v, want %q", err, tt.wantMsg)
			}
		})
	}
}

func TestSession_State(t *testing.T) {
	tests := []struct {
		name string
		s    Session
		want SessionState
	}{
		{"empty", Session{}, SessionAnonymous},
		{"unverified token", Session{Token: "t"}, SessionAnonymous},
		{"loading", Session{Token: "t", IsLoading: true}, SessionVerifying},
		{"authenticated", Session{Token: "t", IsAuthenticated: true}, SessionAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserProfile_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		u    UserProfile
		want string
	}{
		{"name", UserProfile{"name": "Ada", "email": "a@b.com"}, "Ada"},
		{"email", UserProfile{"email": "a@b.com"}, "a@b.com"},
		{"numeric id", UserProfile{"id": float64(1)}, "1"},
		{"nil", nil, "unknown user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_CloneIsIndependent(t *testing.T) {
	s := Session{Token: "t", User: UserProfile{"name": "Ada"}}
	c := s.Clone()
	c.User["name"] = "Bob"
	if s.User.Field("name") != "Ada" {
		t.Error("Clone shares the user map")
	}
	if s.Persisted().IsEmpty() {
		t.Error("Persisted() should carry token and user")
	}
	if !(PersistedSession{}).IsEmpty() {
		t.Error("zero PersistedSession should be empty")
	}
}

func TestUsageRecordInput_Validate(t *testing.T) {
	valid := UsageRecordInput{APIKeyID: "k", ModelName: "gpt-4", InputTokens: 1}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	bad := valid
	bad.StatusCode = 42
	if err := bad.Validate(); err == nil {
		t.Error("status code 42 should be rejected")
	}
	bad = valid
	bad.OutputTokens = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative tokens should be rejected")
	}
}

func TestPrediction_ConfidencePercent(t *testing.T) {
	if got := (Prediction{ConfidenceScore: 0.85}).ConfidencePercent(); got < 84.99 || got > 85.01 {
		t.Errorf("ConfidencePercent() = %v, want 85", got)
	}
	if got := (Prediction{ConfidenceScore: 72}).ConfidencePercent(); got != 72 {
		t.Errorf("ConfidencePercent() = %v, want 72", got)
	}
}

func TestAPIKeyInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   APIKeyInput
		want string
	}{
		{"missing name", APIKeyInput{Provider: "openai", APIKey: "sk"}, "Name is required"},
		{"missing provider", APIKeyInput{Name: "Prod", APIKey: "sk"}, "Provider is required"},
		{"missing key", APIKeyInput{Name: "Prod", Provider: "openai"}, "API key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if err == nil || err.Error() != tt.want {
				t.Fatalf("Validate() = %v, want %q", err, tt.want)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("expected ErrInvalidInput")
			}
		})
	}

	if err := (APIKeyInput{Name: "Prod", Provider: "openai", APIKey: "sk"}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
