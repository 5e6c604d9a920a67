package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepost/internal/models"
	"gatepost/internal/session"
)

func TestRegister_Success(t *testing.T) {
	app, _, db := newTestServer(t)
	seedInviteCode(t, db, "WELCOME1")

	resp := doJSON(t, app, http.MethodPost, "/register", map[string]string{
		"username":   "alice",
		"password":   "secret1",
		"inviteCode": "WELCOME1",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "alice", body.User.Username)
	assert.NotZero(t, body.User.ID)

	// Registration logs the caller in.
	token := sessionCookie(t, resp)
	require.NotEmpty(t, token)

	me := doJSON(t, app, http.MethodGet, "/me", nil, token)
	require.Equal(t, http.StatusOK, me.StatusCode)
}

func TestRegister_ValidationReasons(t *testing.T) {
	app, _, db := newTestServer(t)
	seedInviteCode(t, db, "ONCE0001")

	// Burn the code with a first registration.
	first := doJSON(t, app, http.MethodPost, "/register", map[string]string{
		"username": "first", "password": "secret1", "inviteCode": "ONCE0001",
	}, "")
	require.Equal(t, http.StatusCreated, first.StatusCode)

	tests := []struct {
		name           string
		body           map[string]string
		expectedReason string
	}{
		{
			name:           "missing fields",
			body:           map[string]string{"username": "bob"},
			expectedReason: models.ReasonMissingFields,
		},
		{
			name:           "short password",
			body:           map[string]string{"username": "bob", "password": "abc", "inviteCode": "ONCE0001"},
			expectedReason: models.ReasonPasswordLength,
		},
		{
			name:           "taken username",
			body:           map[string]string{"username": "first", "password": "secret1", "inviteCode": "ONCE0001"},
			expectedReason: models.ReasonUsernameTaken,
		},
		{
			name:           "unknown invite",
			body:           map[string]string{"username": "bob", "password": "secret1", "inviteCode": "NOPE9999"},
			expectedReason: models.ReasonInviteNotFound,
		},
		{
			name:           "used invite",
			body:           map[string]string{"username": "bob", "password": "secret1", "inviteCode": "ONCE0001"},
			expectedReason: models.ReasonInviteAlreadyUsed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/register", tt.body, "")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errBody models.ErrorResponse
			decodeBody(t, resp, &errBody)
			assert.Equal(t, tt.expectedReason, errBody.Reason)
			assert.NotEmpty(t, errBody.Error)
		})
	}

	// None of the failed attempts created a user.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "bob").Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoginLogoutFlow(t *testing.T) {
	app, _, db := newTestServer(t)
	registerUser(t, app, db, "alice", "secret1", "LOGIN001")

	resp := doJSON(t, app, http.MethodPost, "/login", map[string]string{
		"username": "alice", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := sessionCookie(t, resp)
	require.NotEmpty(t, token)

	var body struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "alice", body.User.Username)

	out := doJSON(t, app, http.MethodPost, "/logout", nil, token)
	require.Equal(t, http.StatusOK, out.StatusCode)
	assert.Empty(t, sessionCookie(t, out))

	// The old token no longer authenticates.
	me := doJSON(t, app, http.MethodGet, "/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
}

func TestLogin_BadCredentials(t *testing.T) {
	app, _, db := newTestServer(t)
	registerUser(t, app, db, "alice", "secret1", "CREDS001")

	resp := doJSON(t, app, http.MethodPost, "/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/login", map[string]string{
		"username": "nobody", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresSession(t *testing.T) {
	app, _, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/me", nil, "not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_VanishedUserRevokesSession(t *testing.T) {
	app, s, db := newTestServer(t)
	token := registerUser(t, app, db, "erin", "secret1", "GONE0001")

	require.NoError(t, db.Where("username = ?", "erin").Delete(&models.User{}).Error)

	resp := doJSON(t, app, http.MethodGet, "/me", nil, token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, sessionCookie(t, resp))

	// The session entry is revoked server-side, not just the cookie.
	_, err := s.sessions.Get(context.Background(), token)
	assert.True(t, errors.Is(err, session.ErrNotFound))
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	app, _, db := newTestServer(t)
	token := registerUser(t, app, db, "carol", "secret1", "MECODE01")

	resp := doJSON(t, app, http.MethodGet, "/me", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "carol", body.User.Username)
}
