// Package middleware provides the Fiber middleware shared by every route.
package middleware

import (
	"context"
	"strings"

	"storyboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenParser turns a bearer token into a user id.
type TokenParser interface {
	Parse(token string) (uint, error)
}

// AccountChecker answers the per-request account questions.
type AccountChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
	IsLocked(ctx context.Context, userID uint) (bool, error)
}

// Authenticator guards routes that need a signed-in user.
type Authenticator struct {
	tokens   TokenParser
	accounts AccountChecker
}

// NewAuthenticator returns an Authenticator backed by tokens and accounts.
func NewAuthenticator(tokens TokenParser, accounts AccountChecker) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts}
}

// AuthRequired accepts a bearer token in the Authorization header and stores
// the user id in c.Locals("userID"). Locked accounts are refused.
func (a *Authenticator) AuthRequired() fiber.Handler {
	return a.handler(false, false)
}

// WebSocketAuthRequired also accepts the token as ?token=, since browsers
// cannot set headers on a WebSocket upgrade.
func (a *Authenticator) WebSocketAuthRequired() fiber.Handler {
	return a.handler(true, false)
}

// OptionalAuth identifies the caller when a token is sent and lets anonymous
// requests through. A bad or locked token is still refused.
func (a *Authenticator) OptionalAuth() fiber.Handler {
	return a.handler(false, true)
}

// AdminRequired must run after AuthRequired.
func (a *Authenticator) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userID").(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		admin, err := a.accounts.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (a *Authenticator) handler(allowQuery, optional bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" && allowQuery {
			token = c.Query("token")
		}
		if token == "" && optional && c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if token == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := a.tokens.Parse(token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		locked, err := a.accounts.IsLocked(c.UserContext(), userID)
		switch {
		case models.IsCode(err, models.CodeNotFound):
			// Token outlived its account.
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		case err != nil:
			Logger.ErrorContext(c.UserContext(), "account lookup failed", "error", err, "user_id", userID)
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		case locked:
			return models.RespondWithError(c, fiber.StatusForbidden, models.NewLockedError())
		}

		c.Locals("userID", userID)
		c.SetUserContext(WithUserID(c.UserContext(), userID))
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
