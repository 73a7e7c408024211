// Package graphql resolves identities by asking the remote GraphQL API for the current user.
package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

const (
	sourceName     = "graphql"
	defaultTimeout = 5 * time.Second

	unauthenticatedCode = "UNAUTHENTICATED"
)

const currentUserQuery = `query CurrentUser {
  currentUser {
    id
    email
    firstName
    lastName
    roles
    avatar
  }
}`

type request struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
}

type response struct {
	Data struct {
		CurrentUser *currentUser `json:"currentUser"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type currentUser struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
	Avatar    *string  `json:"avatar"`
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// Source queries the remote API with the session's bearer token.
type Source struct {
	endpoint string
	timeout  time.Duration
}

// NewSource builds a GraphQL source for endpoint.
func NewSource(endpoint string, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Source{endpoint: endpoint, timeout: timeout}
}

type reply struct {
	status int
	body   []byte
	errs   []error
}

// CurrentIdentity implements identity.Source.
func (s *Source) CurrentIdentity(ctx context.Context, creds identity.Credentials) (*domain.Identity, error) {
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access token", identity.ErrNoSession)
	}

	agent := fiber.Post(s.endpoint)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+creds.AccessToken)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.JSON(request{OperationName: "CurrentUser", Query: currentUserQuery})
	agent.Timeout(s.timeoutFor(ctx))

	done := make(chan reply, 1)
	go func() {
		status, body, errs := agent.Bytes()
		done <- reply{status: status, body: body, errs: errs}
	}()

	var res reply
	select {
	case res = <-done:
	case <-ctx.Done():
		return nil, &identity.FetchError{Source: sourceName, Err: ctx.Err()}
	}

	if len(res.errs) > 0 {
		return nil, &identity.FetchError{Source: sourceName, Err: errors.Join(res.errs...)}
	}
	return decode(res.status, res.body)
}

func (s *Source) timeoutFor(ctx context.Context) time.Duration {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}

func decode(status int, body []byte) (*domain.Identity, error) {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: api answered %d", identity.ErrNoSession, status)
	case status != http.StatusOK:
		return nil, &identity.FetchError{Source: sourceName, Err: fmt.Errorf("unexpected status %d", status)}
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &identity.FetchError{Source: sourceName, Err: fmt.Errorf("decode response: %w", err)}
	}

	for _, gqlErr := range payload.Errors {
		if strings.EqualFold(gqlErr.Extensions.Code, unauthenticatedCode) {
			return nil, fmt.Errorf("%w: %s", identity.ErrNoSession, gqlErr.Message)
		}
	}
	if payload.Data.CurrentUser == nil {
		if len(payload.Errors) > 0 {
			return nil, &identity.FetchError{Source: sourceName, Err: errors.New(payload.Errors[0].Message)}
		}
		return nil, nil
	}

	return payload.Data.CurrentUser.identity(), nil
}

// identity maps the API user. Roles outside the known enumeration grant nothing.
func (u *currentUser) identity() *domain.Identity {
	roles := domain.NewRoleSet()
	for _, raw := range u.Roles {
		if role, err := domain.ParseRole(raw); err == nil {
			roles[role] = struct{}{}
		}
	}
	id := &domain.Identity{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     roles,
	}
	if u.Avatar != nil {
		id.Avatar = *u.Avatar
	}
	return id
}
