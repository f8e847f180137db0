package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesAccountAndProfile(t *testing.T) {
	_, app := setupTestServer(t)

	token, profileID := registerUser(t, app, "alice@example.com")

	resp, err := app.Test(authedRequest(token, http.MethodGet, "/api/users/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	decodeBody(t, resp, &profile)
	assert.Equal(t, profileID, profile.ID)
	assert.Regexp(t, `^user_[0-9a-f]{8}$`, profile.Username)
}

func TestRegister_RejectsBadInput(t *testing.T) {
	_, app := setupTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing email", map[string]string{"password": "correct-horse"}},
		{"not an email", map[string]string{"email": "nope", "password": "correct-horse"}},
		{"short password", map[string]string{"email": "a@b.com", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", tt.body), -1)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, app := setupTestServer(t)
	registerUser(t, app, "bob@example.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "bob@example.com",
		"password": "correct-horse",
	}), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_RoundTrip(t *testing.T) {
	_, app := setupTestServer(t)
	_, profileID := registerUser(t, app, "carol@example.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "carol@example.com",
		"password": "correct-horse",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token   string `json:"token"`
		Profile struct {
			ID uint `json:"id"`
		} `json:"profile"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, profileID, body.Profile.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	_, app := setupTestServer(t)
	registerUser(t, app, "dave@example.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "dave@example.com",
		"password": "wrong-password",
	}), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuth_RejectsGarbageToken(t *testing.T) {
	_, app := setupTestServer(t)

	resp, err := app.Test(authedRequest("not-a-token", http.MethodGet, "/api/users/me", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
