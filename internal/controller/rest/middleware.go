package rest

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const advisorIDKey = "advisorID"

// AdvisorClaims claims токена, выданного внешним сервисом идентификации
type AdvisorClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateToken подписывает токен консультанта (используется в тестах и локальной разработке)
func GenerateToken(secret string, advisorID uuid.UUID, email, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdvisorClaims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   advisorID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTMiddleware проверяет Bearer токен и кладёт ID консультанта в c.Locals
func (h *Handler) JWTMiddleware(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return Error(c, fiber.StatusUnauthorized, ReasonUnauthorized, "Missing or invalid Authorization header")
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		var claims AdvisorClaims
		token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			return Error(c, fiber.StatusUnauthorized, ReasonUnauthorized, "Invalid or expired token")
		}

		id, err := uuid.Parse(claims.Subject)
		if err != nil {
			return Error(c, fiber.StatusUnauthorized, ReasonUnauthorized, "Invalid token payload")
		}

		if _, err := h.advisors.Ensure(c.UserContext(), id, claims.Email, claims.Name); err != nil {
			return h.handleError(c, err)
		}

		c.Locals(advisorIDKey, id)
		return c.Next()
	}
}

// advisorID ID консультанта, положенный JWTMiddleware
func advisorID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(advisorIDKey).(uuid.UUID)
	return id
}

// RequestLogger логирует каждый запрос через zap
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
			logger.Error("HTTP request failed", fields...)
			return err
		}
		logger.Info("HTTP request", fields...)
		return nil
	}
}
