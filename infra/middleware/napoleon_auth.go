package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"napoleon_server/pkg/logger"
)

// JWTAuth validates HS256 bearer tokens and stores the user id in locals.
// The token's sub claim is the tenant: every repository query is scoped to
// it downstream.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// CORS preflight carries no token
		if c.Method() == "OPTIONS" {
			return c.Next()
		}

		var tokenString string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization"})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
			}
			if secret == "" {
				return nil, fmt.Errorf("JWT secret not configured")
			}
			return []byte(secret), nil
		})
		if err != nil {
			logger.WithError(err).Warn("JWT validation failed")
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}
		if !token.Valid {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "invalid claims"})
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				return c.Status(401).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
		}

		// Reject tokens issued in the future, allowing 1 minute clock skew.
		if iat, ok := claims["iat"].(float64); ok {
			issuedAt := time.Unix(int64(iat), 0)
			if issuedAt.After(time.Now().Add(time.Minute)) {
				return c.Status(401).JSON(fiber.Map{
					"error": "token issued in the future",
					"code":  "INVALID_TOKEN_TIME",
				})
			}
		}

		userIDStr, ok := claims["sub"].(string)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "missing user id in token"})
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid user id format"})
		}

		email := ""
		if emailClaim, ok := claims["email"].(string); ok {
			email = emailClaim
		}

		c.Locals("user_id", userID)
		c.Locals("user_email", email)
		c.Locals("claims", claims)

		return c.Next()
	}
}
