package identity

import (
	"context"
	"time"

	"github.com/spec-kit/webapp-gateway/internal/domain"
)

// State is the lifecycle position of a provider.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the published identity.
type Snapshot struct {
	Identity   *domain.Identity
	Loading    bool
	State      State
	Version    uint64
	ResolvedAt time.Time
}

// Authenticated reports whether the snapshot is authoritative and carries an identity.
func (s Snapshot) Authenticated() bool {
	return s.State == StateReady && s.Identity != nil
}

// Subscription is the read side of a provider handed to consumers.
type Subscription interface {
	// Current returns the latest snapshot. Callers must not decide on it
	// while Loading is true.
	Current() Snapshot
	// Ready is closed once the first fetch has settled.
	Ready() <-chan struct{}
	// Done is closed when the owning provider is unmounted.
	Done() <-chan struct{}
	// Refresh re-fetches the identity and waits for the result.
	Refresh(ctx context.Context) error
	// Watch streams snapshots as they change. The returned func stops the stream.
	Watch() (<-chan Snapshot, func())
}

// Await blocks until sub is ready and returns the settled snapshot. It fails
// when ctx ends first or the provider is unmounted while loading.
func Await(ctx context.Context, sub Subscription) (Snapshot, error) {
	select {
	case <-sub.Ready():
		return sub.Current(), nil
	default:
	}
	select {
	case <-sub.Ready():
		return sub.Current(), nil
	case <-sub.Done():
		return Snapshot{}, ErrClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
