package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/webapp-gateway/internal/domain"
)

// ErrNoSession reports that the source definitely has no authenticated session.
var ErrNoSession = errors.New("identity: no session")

// ErrClosed is returned by operations on a provider that has been unmounted.
var ErrClosed = errors.New("identity: provider closed")

// FetchError wraps an indeterminate failure such as a network or server error.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("identity: fetch from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsUnauthenticated reports whether err means "nobody is signed in".
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrNoSession)
}

// Credentials carry whatever a source needs to resolve the caller.
type Credentials struct {
	SessionID   string
	UserID      string
	AccessToken string
}

// Anonymous reports whether there is nothing to resolve.
func (c Credentials) Anonymous() bool {
	return c.UserID == "" && c.AccessToken == ""
}

// Source resolves the identity behind a set of credentials.
// A nil identity with a nil error means the source answered but has no user.
type Source interface {
	CurrentIdentity(ctx context.Context, creds Credentials) (*domain.Identity, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, creds Credentials) (*domain.Identity, error)

// CurrentIdentity calls f.
func (f SourceFunc) CurrentIdentity(ctx context.Context, creds Credentials) (*domain.Identity, error) {
	return f(ctx, creds)
}
