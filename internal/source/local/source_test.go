package local

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/webapp-gateway/internal/auth"
	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

type mockUserRepository struct {
	users map[string]*domain.User
	err   error
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) Update(_ context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func setup(t *testing.T) (*Source, *mockUserRepository, identity.Credentials) {
	t.Helper()
	repo := &mockUserRepository{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "ada@example.com", FirstName: "Ada", Roles: domain.NewRoleSet(domain.RoleAdmin)},
	}}
	tokens := auth.NewTokenManager("secret", 10)
	token, _, err := tokens.GenerateToken("u1", "s1")
	require.NoError(t, err)
	return NewSource(repo, tokens), repo, identity.Credentials{SessionID: "s1", UserID: "u1", AccessToken: token}
}

func TestLocalSourceResolvesUser(t *testing.T) {
	src, _, creds := setup(t)

	id, err := src.CurrentIdentity(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "Ada", id.DisplayName())
	assert.True(t, id.HasRole(domain.RoleAdmin))
}

func TestLocalSourceInvalidTokenIsUnauthenticated(t *testing.T) {
	src, _, creds := setup(t)
	creds.AccessToken = "garbage"

	_, err := src.CurrentIdentity(context.Background(), creds)
	assert.True(t, identity.IsUnauthenticated(err))
}

func TestLocalSourceSessionMismatchIsUnauthenticated(t *testing.T) {
	src, _, creds := setup(t)
	creds.SessionID = "s2"

	_, err := src.CurrentIdentity(context.Background(), creds)
	assert.True(t, identity.IsUnauthenticated(err))
}

func TestLocalSourceDeletedUserIsUnauthenticated(t *testing.T) {
	src, repo, creds := setup(t)
	delete(repo.users, "u1")

	_, err := src.CurrentIdentity(context.Background(), creds)
	assert.True(t, identity.IsUnauthenticated(err))
}

func TestLocalSourceDatabaseFailureIsTransient(t *testing.T) {
	src, repo, creds := setup(t)
	repo.err = errors.New("connection reset")

	_, err := src.CurrentIdentity(context.Background(), creds)
	require.Error(t, err)
	assert.False(t, identity.IsUnauthenticated(err))
	var fetchErr *identity.FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
