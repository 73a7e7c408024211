package identity

import "github.com/gofiber/fiber/v2"

const subscriptionKey = "identity_subscription"

// Bind exposes sub to the handlers downstream of c.
func Bind(c *fiber.Ctx, sub Subscription) {
	c.Locals(subscriptionKey, sub)
}

// FromContext retrieves the subscription bound to the request.
func FromContext(c *fiber.Ctx) (Subscription, bool) {
	val := c.Locals(subscriptionKey)
	if val == nil {
		return nil, false
	}
	sub, ok := val.(Subscription)
	return sub, ok
}
