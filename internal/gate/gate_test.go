package gate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/quick"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

func roleSetFromMask(mask uint8) domain.RoleSet {
	set := domain.NewRoleSet()
	for i, role := range domain.AllRoles {
		if mask&(1<<uint(i)) != 0 {
			set[role] = struct{}{}
		}
	}
	return set
}

func TestEvaluateMatchesIntersection(t *testing.T) {
	property := func(requiredMask, heldMask uint8, present bool) bool {
		required := roleSetFromMask(requiredMask)
		var id *domain.Identity
		if present {
			id = &domain.Identity{ID: "u1", Roles: roleSetFromMask(heldMask)}
		}

		want := Deny
		if id != nil {
			for role := range required {
				if id.Roles.Contains(role) {
					want = Allow
				}
			}
		}
		return Evaluate(required, id) == want
	}
	require.NoError(t, quick.Check(property, nil))
}

func TestEvaluateEmptyRequirementAlwaysDenies(t *testing.T) {
	property := func(heldMask uint8) bool {
		id := &domain.Identity{ID: "u1", Roles: roleSetFromMask(heldMask)}
		return Evaluate(domain.NewRoleSet(), id) == Deny && Evaluate(nil, id) == Deny
	}
	require.NoError(t, quick.Check(property, nil))

	everything := &domain.Identity{ID: "root", Roles: domain.NewRoleSet(domain.AllRoles...)}
	assert.Equal(t, Deny, Evaluate(domain.NewRoleSet(), everything))
}

func TestEvaluateWithoutIdentityDenies(t *testing.T) {
	assert.Equal(t, Deny, Evaluate(domain.NewRoleSet(domain.AllRoles...), nil))
}

// switchableSource returns whatever identity the test currently holds.
type switchableSource struct {
	mu  sync.Mutex
	id  *domain.Identity
	err error
}

func (s *switchableSource) set(id *domain.Identity, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id, s.err = id, err
}

func (s *switchableSource) CurrentIdentity(context.Context, identity.Credentials) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id.Clone(), s.err
}

func mountedProvider(t *testing.T, src identity.Source) *identity.Provider {
	t.Helper()
	p := identity.NewProvider(src, identity.Credentials{SessionID: "s1", UserID: "u1", AccessToken: "t"})
	t.Cleanup(p.Close)
	p.Initialize()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := identity.Await(ctx, p)
	require.NoError(t, err)
	return p
}

func newApp(sub identity.Subscription, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if sub != nil {
			identity.Bind(c, sub)
		}
		return c.Next()
	})
	app.Get("/protected", guard, func(c *fiber.Ctx) error {
		return c.SendString("protected content")
	})
	return app
}

func get(t *testing.T, app *fiber.App) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

type decisionLog struct {
	mu        sync.Mutex
	decisions []string
}

func (l *decisionLog) RecordGateDecision(gate, decision string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decisions = append(l.decisions, gate+":"+decision)
}

func TestRoleAccessRendersForMatchingRole(t *testing.T) {
	src := &switchableSource{id: &domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleAdmin)}}
	p := mountedProvider(t, src)

	log := &decisionLog{}
	resp, body := get(t, newApp(p, RoleAccess(Options{Name: "admin", Recorder: log}, domain.RoleAdmin)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "protected content", body)

	resp, body = get(t, newApp(p, RoleAccess(Options{Name: "user", Recorder: log}, domain.RoleUser)))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	assert.Equal(t, []string{"admin:allow", "user:deny"}, log.decisions)
}

func TestRoleAccessRendersNothingWithoutSession(t *testing.T) {
	src := &switchableSource{err: identity.ErrNoSession}
	p := mountedProvider(t, src)

	for _, roles := range [][]domain.Role{{domain.RoleAdmin}, {domain.RoleUser}, domain.AllRoles} {
		resp, body := get(t, newApp(p, RoleAccess(Options{}, roles...)))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, body)
	}
}

func TestRoleAccessWithoutSubscriptionDenies(t *testing.T) {
	resp, body := get(t, newApp(nil, RoleAccess(Options{}, domain.RoleAdmin)))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)
}

func TestRoleAccessIgnoresUnsettledIdentity(t *testing.T) {
	p := identity.NewProvider(&switchableSource{id: &domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleAdmin)}},
		identity.Credentials{UserID: "u1"})
	defer p.Close()

	resp, _ := get(t, newApp(p, RoleAccess(Options{}, domain.RoleAdmin)))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRoleAccessFollowsRefresh(t *testing.T) {
	src := &switchableSource{id: &domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleAdmin)}}
	p := mountedProvider(t, src)
	app := newApp(p, RoleAccess(Options{}, domain.RoleAdmin))

	resp, _ := get(t, app)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	src.set(&domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleUser)}, nil)
	require.NoError(t, p.Refresh(context.Background()))

	resp, body := get(t, app)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)
}

func TestRoleAccessFollowsLogout(t *testing.T) {
	src := &switchableSource{id: &domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleAdmin)}}
	p := mountedProvider(t, src)
	app := newApp(p, RoleAccess(Options{}, domain.RoleAdmin))

	p.Reset()

	resp, _ := get(t, app)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAuthRoute(t *testing.T) {
	signedIn := mountedProvider(t, &switchableSource{id: &domain.Identity{ID: "u1"}})
	resp, body := get(t, newApp(signedIn, AuthRoute(Options{}, "/login")))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "protected content", body)

	signedOut := mountedProvider(t, &switchableSource{err: identity.ErrNoSession})
	resp, _ = get(t, newApp(signedOut, AuthRoute(Options{}, "/login")))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestAnonymousRoute(t *testing.T) {
	signedOut := mountedProvider(t, &switchableSource{err: identity.ErrNoSession})
	resp, body := get(t, newApp(signedOut, AnonymousRoute(Options{}, "/home")))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "protected content", body)

	signedIn := mountedProvider(t, &switchableSource{id: &domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleAdmin)}})
	resp, _ = get(t, newApp(signedIn, AnonymousRoute(Options{}, "/home")))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/home", resp.Header.Get("Location"))
}

func TestRoleRoute(t *testing.T) {
	user := mountedProvider(t, &switchableSource{id: &domain.Identity{ID: "u1", Roles: domain.NewRoleSet(domain.RoleUser)}})

	resp, _ := get(t, newApp(user, RoleRoute(Options{}, "/home", domain.RoleAdmin)))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/home", resp.Header.Get("Location"))

	resp, body := get(t, newApp(user, RoleRoute(Options{}, "/home", domain.RoleUser, domain.RoleAdmin)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "protected content", body)
}
