package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func myUsername(t *testing.T, app *fiber.App, token string) string {
	t.Helper()
	resp, err := app.Test(authedRequest(token, http.MethodGet, "/api/users/me", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile struct {
		Username string `json:"username"`
	}
	decodeBody(t, resp, &profile)
	return profile.Username
}

func sendRequestTo(t *testing.T, app *fiber.App, token, username string) uint {
	t.Helper()
	resp, err := app.Test(authedRequest(token, http.MethodPost, "/api/friends/requests",
		map[string]string{"username": username}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var edge struct {
		ID uint `json:"id"`
	}
	decodeBody(t, resp, &edge)
	require.NotZero(t, edge.ID)
	return edge.ID
}

func TestFriendRequestFlow_Accept(t *testing.T) {
	_, app := setupTestServer(t)
	aliceToken, aliceID := registerUser(t, app, "alice@example.com")
	bobToken, bobID := registerUser(t, app, "bob@example.com")

	edgeID := sendRequestTo(t, app, aliceToken, myUsername(t, app, bobToken))

	// The request shows up in the recipient's pending list.
	resp, err := app.Test(authedRequest(bobToken, http.MethodGet, "/api/friends/requests", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pending []struct {
		ID          uint `json:"id"`
		RequesterID uint `json:"requester_id"`
	}
	decodeBody(t, resp, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, edgeID, pending[0].ID)
	assert.Equal(t, aliceID, pending[0].RequesterID)

	resp, err = app.Test(authedRequest(bobToken, http.MethodPost,
		fmt.Sprintf("/api/friends/requests/%d/accept", edgeID), nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accepted struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp, &accepted)
	assert.Equal(t, "accepted", accepted.Status)

	// Both sides now list each other.
	for _, tc := range []struct {
		token string
		peer  uint
	}{{aliceToken, bobID}, {bobToken, aliceID}} {
		resp, err := app.Test(authedRequest(tc.token, http.MethodGet, "/api/friends/", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var friends []struct {
			ID uint `json:"id"`
		}
		decodeBody(t, resp, &friends)
		require.Len(t, friends, 1)
		assert.Equal(t, tc.peer, friends[0].ID)
	}
}

func TestFriendRequestFlow_AcceptReplayIsNoOp(t *testing.T) {
	_, app := setupTestServer(t)
	aliceToken, _ := registerUser(t, app, "alice@example.com")
	bobToken, _ := registerUser(t, app, "bob@example.com")

	edgeID := sendRequestTo(t, app, aliceToken, myUsername(t, app, bobToken))

	target := fmt.Sprintf("/api/friends/requests/%d/accept", edgeID)
	for i := 0; i < 2; i++ {
		resp, err := app.Test(authedRequest(bobToken, http.MethodPost, target, nil), -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestFriendRequestFlow_Reject(t *testing.T) {
	_, app := setupTestServer(t)
	aliceToken, _ := registerUser(t, app, "alice@example.com")
	bobToken, _ := registerUser(t, app, "bob@example.com")

	edgeID := sendRequestTo(t, app, aliceToken, myUsername(t, app, bobToken))

	target := fmt.Sprintf("/api/friends/requests/%d/reject", edgeID)
	resp, err := app.Test(authedRequest(bobToken, http.MethodPost, target, nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Replaying the reject is a quiet no-op.
	resp, err = app.Test(authedRequest(bobToken, http.MethodPost, target, nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The pair can start over after a reject.
	sendRequestTo(t, app, aliceToken, myUsername(t, app, bobToken))
}

func TestFriendRequest_SelfAndDuplicate(t *testing.T) {
	_, app := setupTestServer(t)
	aliceToken, _ := registerUser(t, app, "alice@example.com")
	bobToken, _ := registerUser(t, app, "bob@example.com")

	// Self reference.
	resp, err := app.Test(authedRequest(aliceToken, http.MethodPost, "/api/friends/requests",
		map[string]string{"username": myUsername(t, app, aliceToken)}), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	sendRequestTo(t, app, aliceToken, myUsername(t, app, bobToken))

	// Duplicate from either direction conflicts.
	resp, err = app.Test(authedRequest(bobToken, http.MethodPost, "/api/friends/requests",
		map[string]string{"username": myUsername(t, app, aliceToken)}), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFriendRequest_OnlyRecipientAccepts(t *testing.T) {
	_, app := setupTestServer(t)
	aliceToken, _ := registerUser(t, app, "alice@example.com")
	bobToken, _ := registerUser(t, app, "bob@example.com")

	edgeID := sendRequestTo(t, app, aliceToken, myUsername(t, app, bobToken))

	resp, err := app.Test(authedRequest(aliceToken, http.MethodPost,
		fmt.Sprintf("/api/friends/requests/%d/accept", edgeID), nil), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFriendRequest_UnknownUsername(t *testing.T) {
	_, app := setupTestServer(t)
	aliceToken, _ := registerUser(t, app, "alice@example.com")

	resp, err := app.Test(authedRequest(aliceToken, http.MethodPost, "/api/friends/requests",
		map[string]string{"username": "nobody_here"}), -1)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
