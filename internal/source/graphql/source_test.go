package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

var creds = identity.Credentials{SessionID: "s1", UserID: "u1", AccessToken: "token-123"}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var req request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CurrentUser", req.OperationName)
		assert.Contains(t, req.Query, "currentUser")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGraphQLSourceResolvesCurrentUser(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":{"currentUser":{
		"id":"u1","email":"ada@example.com","firstName":"Ada","lastName":"Lovelace",
		"roles":["ADMIN","AUDITOR"],"avatar":"https://cdn.example.com/ada.png"}}}`)

	id, err := NewSource(srv.URL, time.Second).CurrentIdentity(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "Ada Lovelace", id.DisplayName())
	assert.Equal(t, "https://cdn.example.com/ada.png", id.Avatar)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, id.Roles.Slice())
}

func TestGraphQLSourceNullUserMeansSignedOut(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":{"currentUser":null}}`)

	id, err := NewSource(srv.URL, time.Second).CurrentIdentity(context.Background(), creds)
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestGraphQLSourceUnauthenticatedError(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":{"currentUser":null},
		"errors":[{"message":"not signed in","extensions":{"code":"UNAUTHENTICATED"}}]}`)

	_, err := NewSource(srv.URL, time.Second).CurrentIdentity(context.Background(), creds)
	assert.True(t, identity.IsUnauthenticated(err))
}

func TestGraphQLSourceUnauthorizedStatus(t *testing.T) {
	srv := newServer(t, http.StatusUnauthorized, `{}`)

	_, err := NewSource(srv.URL, time.Second).CurrentIdentity(context.Background(), creds)
	assert.True(t, identity.IsUnauthenticated(err))
}

func TestGraphQLSourceServerErrorIsTransient(t *testing.T) {
	srv := newServer(t, http.StatusBadGateway, `upstream down`)

	_, err := NewSource(srv.URL, time.Second).CurrentIdentity(context.Background(), creds)
	require.Error(t, err)
	assert.False(t, identity.IsUnauthenticated(err))
	var fetchErr *identity.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestGraphQLSourceOtherErrorsAreTransient(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data":null,"errors":[{"message":"resolver exploded"}]}`)

	_, err := NewSource(srv.URL, time.Second).CurrentIdentity(context.Background(), creds)
	var fetchErr *identity.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "resolver exploded")
}

func TestGraphQLSourceWithoutTokenSkipsNetwork(t *testing.T) {
	_, err := NewSource("http://127.0.0.1:1/graphql", time.Second).CurrentIdentity(context.Background(), identity.Credentials{UserID: "u1"})
	assert.True(t, identity.IsUnauthenticated(err))
}

func TestGraphQLSourceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewSource(srv.URL, time.Second).CurrentIdentity(ctx, creds)
	require.Error(t, err)
	assert.False(t, identity.IsUnauthenticated(err))
}
