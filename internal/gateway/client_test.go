package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// MockRoundTripper implements http.RoundTripper for testing
type MockRoundTripper struct {
	RoundTripFunc func(req *http.Request) (*http.Response, error)
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.RoundTripFunc(req)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyError(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/api/v1"}, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"id":1}}`)
	}, WithTokenSource(TokenFunc(func() string { return "t1" })))

	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer t1", gotAuth)
	assert.Equal(t, "/api/v1/auth/me", gotPath)
	assert.Equal(t, "1", user.Field("id"))
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, `{"success":true,"data":[]}`)
	}, WithTokenSource(TokenFunc(func() string { return "" })))

	_, err := c.Predictions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnwrapsPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7d", r.URL.Query().Get("period"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":[
			{"timestamp":"2026-01-02T03:04:05Z","model_name":"gpt-4","total_tokens":120,"cost":0.5,"errors":0},
			{"timestamp":"2026-01-01T03:04:05Z","model_name":"claude","total_tokens":80,"cost":0.25,"errors":1}
		]}`)
	})

	records, err := c.Usage(context.Background(), models.Period7Days)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "gpt-4", records[0].ModelName)
	assert.Equal(t, int64(120), records[0].TotalTokens)
	assert.True(t, records[1].Failed())
}

func TestClient_SuccessFalseOn200IsValidationFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"Invalid password"}`)
	}, WithNotifier(notifier))

	res, err := c.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "x"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Invalid password", err.Error())
	assert.Equal(t, []string{"Invalid password"}, notifier.all())
}

func TestClient_ClassifiesStatuses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		wantMsg  string
	}{
		{"bad request", 400, `{"success":false,"error":"Validation failed","details":"email taken"}`, ErrValidation, "Validation failed"},
		{"not found", 404, `{"success":false,"error":"Resource not found"}`, ErrValidation, "Resource not found"},
		{"server", 500, `{"success":false,"error":"Internal error"}`, ErrServer, "Internal error"},
		{"server html", 502, `<html>bad gateway</html>`, ErrServer, "Request failed with status code 502"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.Stats(context.Background(), models.Period24Hours)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.wantMsg, err.Error())

			var gwErr *Error
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.status, gwErr.Status)
		})
	}
}

func TestClient_MalformedEnvelopeIsServerError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `hello`},
		{"missing success", `{"data":{"total_cost":1}}`},
		{"array", `[1,2,3]`},
		{"bad data", `{"success":true,"data":"nope"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})
			_, err := c.Stats(context.Background(), models.Period7Days)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrServer)
		})
	}
}

func TestClient_401InvokesHandlerOncePerResponse(t *testing.T) {
	var expired atomic.Int32
	notifier := &recordingNotifier{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"error":"Invalid token"}`)
	},
		WithSessionExpiredHandler(SessionExpiredFunc(func() { expired.Add(1) })),
		WithNotifier(notifier),
	)

	_, err := c.Usage(context.Background(), models.Period7Days)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.Equal(t, int32(1), expired.Load())
	assert.Equal(t, []string{SessionExpiredMessage}, notifier.all())

	_, err = c.Predictions(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), expired.Load())
}

func TestClient_LogoutSendsGivenToken(t *testing.T) {
	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, `{"success":true,"data":null}`)
	}, WithTokenSource(TokenFunc(func() string { return "" })))

	require.NoError(t, c.Logout(context.Background(), "old-token"))
	assert.Equal(t, "Bearer old-token", gotAuth, "explicit token wins over the cleared source")
	assert.Equal(t, "/api/v1/auth/logout", gotPath)
}

func TestClient_LogoutFailuresAreQuiet(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		down    bool
		want    error
	}{
		{
			name: "Unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid token"}`)
			},
			want: ErrAuthExpired,
		},
		{
			name: "ServerError",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, `{"success":false}`)
			},
			want: ErrServer,
		},
		{
			name:    "Unreachable",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			down:    true,
			want:    ErrNetwork,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var expired atomic.Int32
			notifier := &recordingNotifier{}
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)
			c, err := New(Config{BaseURL: srv.URL},
				WithSessionExpiredHandler(SessionExpiredFunc(func() { expired.Add(1) })),
				WithNotifier(notifier),
			)
			require.NoError(t, err)
			if tt.down {
				srv.Close()
			}

			err = c.Logout(context.Background(), "t1")
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, expired.Load())
			assert.Empty(t, notifier.all())
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	notifier := &recordingNotifier{}
	c, err := New(Config{BaseURL: "http://api.test"},
		WithHTTPClient(&http.Client{Transport: &MockRoundTripper{
			RoundTripFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
		}}),
		WithNotifier(notifier),
	)
	require.NoError(t, err)

	_, err = c.Predictions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Len(t, notifier.all(), 1)
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Predictions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "Request timed out", err.Error())
}

func TestClient_CallerCancellationIsQuiet(t *testing.T) {
	notifier := &recordingNotifier{}
	c, err := New(Config{BaseURL: "http://api.test"},
		WithHTTPClient(&http.Client{Transport: &MockRoundTripper{
			RoundTripFunc: func(req *http.Request) (*http.Response, error) {
				<-req.Context().Done()
				return nil, req.Context().Err()
			},
		}}),
		WithNotifier(notifier),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Predictions(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, notifier.all())
}

func TestClient_ExportReturnsRawBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/usage/export", r.URL.Path)
		assert.Equal(t, "30d", r.URL.Query().Get("period"))
		writeJSON(w, http.StatusOK, `[{"cost":1}]`)
	})

	data, err := c.Export(context.Background(), models.Period30Days)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"cost":1}]`, string(data))
}

func TestClient_SendsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Ada","password":"x"}`, string(body))
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})

	err := c.UpdateSettings(context.Background(), models.SettingsUpdate{Name: "Ada", Password: "x", ConfirmPassword: "x"})
	require.NoError(t, err)
}

func TestClient_LocalValidationSendsNothing(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"success":true}`)
	})

	err := c.UpdateSettings(context.Background(), models.SettingsUpdate{Password: "a", ConfirmPassword: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, models.PasswordMismatchMessage, err.Error())

	_, err = c.CreateAPIKey(context.Background(), models.APIKeyInput{Name: "k"})
	require.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_APIKeys(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/api-keys":
			writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":"k1","name":"prod","provider":"openai","is_active":true}]}`)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/v1/api-keys/"):
			writeJSON(w, http.StatusOK, `{"success":true,"message":"deleted"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"success":false,"error":"Resource not found"}`)
		}
	})

	keys, err := c.APIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "openai", keys[0].Provider)
	assert.True(t, keys[0].IsActive)

	require.NoError(t, c.DeleteAPIKey(context.Background(), "k1"))
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "ServerError (status 503)", (&Error{Kind: KindServer, Status: 503}).Error())
	assert.Equal(t, "NetworkError", (&Error{Kind: KindNetwork}).Error())

	kind, ok := KindOf(&Error{Kind: KindAuthExpired})
	assert.True(t, ok)
	assert.Equal(t, KindAuthExpired, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
