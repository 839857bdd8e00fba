package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/users", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]User{
			{ID: "1", Username: "qa-user-001", Identities: []string{"ldap-corp:qa-user-001"}},
			{ID: "2", Username: "qa-user-002"},
		})
	}))
	defer server.Close()

	client := New(server.URL, WithToken("test-token"))
	users, err := client.ListUsers(context.Background())

	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "qa-user-001", users[0].Username)
	assert.Equal(t, []string{"ldap-corp:qa-user-001"}, users[0].Identities)
}

func TestGetUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/users/alice", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(User{
			ID:       "user-123",
			Username: "alice",
			FullName: "Alice Example",
		})
	}))
	defer server.Close()

	client := New(server.URL, WithToken("test-token"))
	user, err := client.GetUser(context.Background(), "alice")

	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Example", user.FullName)
}

func TestGetUser_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(APIError{
			Code:    "NOT_FOUND",
			Message: "user not found",
		})
	}))
	defer server.Close()

	client := New(server.URL, WithToken("test-token"))
	user, err := client.GetUser(context.Background(), "nonexistent")

	assert.Nil(t, user)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestCreateUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users", r.URL.Path)

		var req CreateUserRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "qa-user-003", req.Username)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(User{
			ID:       "new-user-123",
			Username: req.Username,
		})
	}))
	defer server.Close()

	client := New(server.URL, WithToken("test-token"))
	user, err := client.CreateUser(context.Background(), &CreateUserRequest{
		Username: "qa-user-003",
	})

	require.NoError(t, err)
	assert.Equal(t, "new-user-123", user.ID)
	assert.Equal(t, "qa-user-003", user.Username)
}

func TestCreateUser_Duplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(APIError{
			Code:    "CONFLICT",
			Message: "user already exists",
		})
	}))
	defer server.Close()

	client := New(server.URL, WithToken("test-token"))
	user, err := client.CreateUser(context.Background(), &CreateUserRequest{
		Username: "qa-user-001",
	})

	assert.Nil(t, user)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestDeleteUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/users/qa-user-001", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(server.URL, WithToken("test-token"))
	err := client.DeleteUser(context.Background(), "qa-user-001")

	require.NoError(t, err)
}
