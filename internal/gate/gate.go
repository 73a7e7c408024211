package gate

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/identity"
)

// Decision is the outcome of a role check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Recorder receives gate decisions.
type Recorder interface {
	RecordGateDecision(gate string, decision string)
}

// Evaluate allows only a present identity holding at least one required role.
// An empty requirement is never satisfied.
func Evaluate(required domain.RoleSet, current *domain.Identity) Decision {
	if current == nil || required.Len() == 0 {
		return Deny
	}
	if current.Roles.Intersects(required) {
		return Allow
	}
	return Deny
}

// current reads the live, settled identity bound to the request.
// Anything not yet settled counts as signed out.
func current(c *fiber.Ctx) *domain.Identity {
	sub, ok := identity.FromContext(c)
	if !ok {
		return nil
	}
	snap := sub.Current()
	if snap.Loading || snap.State != identity.StateReady {
		return nil
	}
	return snap.Identity
}

// Options tune the gate middlewares.
type Options struct {
	Name     string
	Recorder Recorder
}

func (o Options) record(d Decision) {
	if o.Recorder != nil {
		o.Recorder.RecordGateDecision(o.Name, d.String())
	}
}

// RoleAccess renders the downstream handlers only when the identity holds
// one of allowed. Otherwise it responds with an empty body and no redirect.
func RoleAccess(opts Options, allowed ...domain.Role) fiber.Handler {
	required := domain.NewRoleSet(allowed...)
	return func(c *fiber.Ctx) error {
		decision := Evaluate(required, current(c))
		opts.record(decision)
		if decision == Allow {
			return c.Next()
		}
		return c.SendStatus(http.StatusNoContent)
	}
}

// AuthRoute redirects signed-out callers to loginPath.
func AuthRoute(opts Options, loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if current(c) == nil {
			opts.record(Deny)
			return c.Redirect(loginPath, http.StatusFound)
		}
		opts.record(Allow)
		return c.Next()
	}
}

// AnonymousRoute redirects signed-in callers to homePath.
func AnonymousRoute(opts Options, homePath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if current(c) != nil {
			opts.record(Deny)
			return c.Redirect(homePath, http.StatusFound)
		}
		opts.record(Allow)
		return c.Next()
	}
}

// RoleRoute redirects callers lacking every allowed role to fallbackPath.
func RoleRoute(opts Options, fallbackPath string, allowed ...domain.Role) fiber.Handler {
	required := domain.NewRoleSet(allowed...)
	return func(c *fiber.Ctx) error {
		decision := Evaluate(required, current(c))
		opts.record(decision)
		if decision == Allow {
			return c.Next()
		}
		return c.Redirect(fallbackPath, http.StatusFound)
	}
}
