package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/logine2e/internal/clock"
)

// newTestApp starts the handler behind httptest and returns a client that
// keeps cookies but does not follow redirects.
func newTestApp(t *testing.T, cfg Config) (*httptest.Server, *http.Client, *Server) {
	t.Helper()

	srv, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return ts, client, srv
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func postForm(t *testing.T, client *http.Client, target, username, password string) *http.Response {
	t.Helper()
	resp, err := client.PostForm(target, url.Values{"username": {username}, "password": {password}})
	require.NoError(t, err)
	return resp
}

func TestRootRedirectsToLogin(t *testing.T) {
	ts, client, _ := newTestApp(t, testConfig())

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginPageRendersForm(t *testing.T) {
	ts, client, _ := newTestApp(t, testConfig())

	resp, err := client.Get(ts.URL + "/login")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	for _, want := range []string{`id="login-form"`, `id="username"`, `id="password"`, `type="submit"`} {
		assert.Contains(t, body, want)
	}
	assert.NotContains(t, body, `id="error-message"`)
	assert.NotContains(t, body, "required>", "form must not block empty submissions client-side")
}

func TestLoginSubmit(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
		wantError  string
	}{
		{"empty form", "", "", http.StatusOK, MsgMissingCredentials},
		{"whitespace username", "   ", "password", http.StatusOK, MsgMissingCredentials},
		{"unknown user", "invalid", "wrong", http.StatusUnauthorized, MsgInvalidCredentials},
		{"wrong password", "testuser", "wrong", http.StatusUnauthorized, MsgInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, client, srv := newTestApp(t, testConfig())

			resp := postForm(t, client, ts.URL+"/login", tt.username, tt.password)
			body := readBody(t, resp)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, body, `id="error-message"`)
			assert.Contains(t, body, tt.wantError)
			assert.Equal(t, 0, srv.Sessions().Len())
		})
	}
}

func TestLoginSubmitPartialOmission(t *testing.T) {
	ts, client, _ := newTestApp(t, testConfig())

	for _, creds := range [][2]string{{"testuser", ""}, {"", "password"}} {
		resp := postForm(t, client, ts.URL+"/login", creds[0], creds[1])
		body := readBody(t, resp)
		assert.Contains(t, body, MsgMissingCredentials, "username=%q password=%q", creds[0], creds[1])
	}
}

func TestLoginSuccessShowsDashboard(t *testing.T) {
	ts, client, srv := newTestApp(t, testConfig())

	resp := postForm(t, client, ts.URL+"/login", "testuser", "password")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, 1, srv.Sessions().Len())

	resp, err := client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="dashboard"`)
	assert.Contains(t, body, `<strong id="current-user">testuser</strong>`)

	// A logged-in visit to /login goes straight to the dashboard.
	resp, err = client.Get(ts.URL + "/login")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestDashboardRequiresSession(t *testing.T) {
	ts, client, _ := newTestApp(t, testConfig())

	resp, err := client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestDashboardEscapesUsername(t *testing.T) {
	cfg := testConfig()
	cfg.Users = map[string]string{"<b>eve</b>": "pw"}
	ts, client, _ := newTestApp(t, cfg)

	resp := postForm(t, client, ts.URL+"/login", "<b>eve</b>", "pw")
	resp.Body.Close()

	resp, err := client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Contains(t, body, "&lt;b&gt;eve&lt;/b&gt;")
	assert.NotContains(t, body, "<b>eve</b>")
}

func TestSessionExpiryLogsOut(t *testing.T) {
	clk := clock.NewMock(time.Time{})
	cfg := testConfig()
	cfg.Clock = clk
	cfg.SessionTTL = time.Minute
	ts, client, _ := newTestApp(t, cfg)

	resp := postForm(t, client, ts.URL+"/login", "testuser", "password")
	resp.Body.Close()

	clk.Advance(time.Minute)

	resp, err := client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLogoutSubmit(t *testing.T) {
	ts, client, srv := newTestApp(t, testConfig())

	resp := postForm(t, client, ts.URL+"/login", "testuser", "password")
	resp.Body.Close()
	require.Equal(t, 1, srv.Sessions().Len())

	resp, err := client.PostForm(ts.URL+"/logout", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Equal(t, 0, srv.Sessions().Len())

	resp, err = client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestSessionsAreIsolatedPerClient(t *testing.T) {
	ts, alice, _ := newTestApp(t, testConfig())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	bob := &http.Client{Jar: jar, CheckRedirect: alice.CheckRedirect}

	resp := postForm(t, alice, ts.URL+"/login", "testuser", "password")
	resp.Body.Close()

	resp, err = bob.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func postJSON(t *testing.T, client *http.Client, target, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAPILogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"malformed body", "invalid_data", http.StatusBadRequest, "Invalid request body"},
		{"empty object", "{}", http.StatusBadRequest, MsgMissingCredentials},
		{"missing password", `{"username":"testuser"}`, http.StatusBadRequest, MsgMissingCredentials},
		{"wrong password", `{"username":"testuser","password":"wrong"}`, http.StatusUnauthorized, MsgInvalidCredentials},
		{"unknown user", `{"username":"invalid","password":"wrong"}`, http.StatusUnauthorized, MsgInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, client, _ := newTestApp(t, testConfig())

			resp := postJSON(t, client, ts.URL+"/auth/login", tt.body, "")
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var got errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.wantError, got.Error)
		})
	}
}

func TestAPILoginLogoutRoundTrip(t *testing.T) {
	ts, client, srv := newTestApp(t, testConfig())

	resp := postJSON(t, client, ts.URL+"/auth/login", `{"username":"testuser","password":"password"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()

	assert.Equal(t, "testuser", login.Username)
	require.NotEmpty(t, login.Token)

	username, err := srv.Sessions().Lookup(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", username)

	resp = postJSON(t, client, ts.URL+"/auth/logout", "", login.Token)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"logged out"}`, body)

	_, err = srv.Sessions().Lookup(login.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAPILogout(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		token      string
		wantStatus int
	}{
		{"no session", "", "", http.StatusOK},
		{"json body", "{}", "", http.StatusOK},
		{"forged token", "", "forged", http.StatusOK},
		{"invalid body", "invalid_data", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, client, _ := newTestApp(t, testConfig())

			resp := postJSON(t, client, ts.URL+"/auth/logout", tt.body, tt.token)
			resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestHealth(t *testing.T) {
	ts, client, _ := newTestApp(t, testConfig())

	resp, err := client.Get(ts.URL + "/health")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, body)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", strings.NewReader("invalid_data"))
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts, client, _ := newTestApp(t, testConfig())

	resp, err := client.Get(ts.URL + "/auth/login")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPaddedEnvironmentUsernameCanLogIn(t *testing.T) {
	t.Setenv("TEST_USERNAME", " qa ")
	t.Setenv("TEST_PASSWORD", "hunter2")

	cfg := DefaultConfig()
	cfg.Logger = testConfig().Logger
	ts, client, _ := newTestApp(t, cfg)

	resp := postForm(t, client, ts.URL+"/login", " qa ", "hunter2")
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err := client.Get(ts.URL + "/dashboard")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, `<strong id="current-user">qa</strong>`)
}
