package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// NewCORS allows the web and mobile players to call the API. origins is a
// comma-separated list ("https://app.example.com,capacitor://localhost");
// empty or "*" allows any origin.
func NewCORS(origins string) fiber.Handler {
	cfg := cors.Config{
		AllowOrigins:  parseOrigins(origins),
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete, fiber.MethodOptions},
		AllowHeaders:  []string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, "X-User-ID"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", fiber.HeaderRetryAfter},
		MaxAge:        int((24 * time.Hour).Seconds()),
	}
	return cors.New(cfg)
}

func parseOrigins(s string) []string {
	if strings.TrimSpace(s) == "" || strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
