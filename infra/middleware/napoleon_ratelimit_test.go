package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func newLimitedApp(limit int) *fiber.App {
	app := fiber.New()
	// Stands in for the auth middleware, which runs before the limiter.
	app.Use(func(c *fiber.Ctx) error {
		if raw := c.Get("X-Test-User"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				c.Locals("user_id", id)
			}
		}
		return c.Next()
	})
	app.Use(NewHTTPRateLimiter(limit, time.Minute).Handler())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(200) })
	return app
}

func TestHTTPRateLimiterKeysByUserID(t *testing.T) {
	app := newLimitedApp(2)
	userA := uuid.New().String()
	userB := uuid.New().String()

	do := func(user string) int {
		req := httptest.NewRequest("GET", "/", nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	// Same source IP throughout: budgets must still be per user.
	for i := 0; i < 2; i++ {
		if got := do(userA); got != 200 {
			t.Fatalf("user A request %d = %d, want 200", i+1, got)
		}
	}
	if got := do(userA); got != 429 {
		t.Errorf("user A over limit = %d, want 429", got)
	}
	if got := do(userB); got != 200 {
		t.Errorf("user B first request = %d, want 200", got)
	}
}

func TestHTTPRateLimiterFallsBackToIP(t *testing.T) {
	app := newLimitedApp(1)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("first anonymous request = %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 429 {
		t.Errorf("second anonymous request = %d, want 429", resp.StatusCode)
	}

	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", resp.Header.Get("X-RateLimit-Remaining"))
	}
}
