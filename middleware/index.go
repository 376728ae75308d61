package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/utils"
)

// Protected accepts the access token from the cookie or a Bearer header and
// stores the account in Locals("account").
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies("access_token")

		if token == "" {
			auth := c.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.MISSING_TOKEN, errors.New("no token"))
		}

		jwtToken, err := helper.ParseToken(token, helper.Settings.JWTSecret)
		if err != nil || !jwtToken.Valid {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_TOKEN, err)
		}
		claim, err := helper.ClaimFromToken(jwtToken)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_TOKEN, err)
		}

		c.Locals("user", jwtToken)
		c.Locals("account", claim)
		return c.Next()
	}
}

// RequireRole lets the request through only for the listed roles. It must run
// after Protected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := helper.GetInfoAccountFromToken(c)
		if !slices.Contains(roles, claim.Role) {
			message := constants.ACCOUNT_NOT_PERMISSION
			if len(roles) == 1 && roles[0] == constants.ROLE_ADMIN {
				message = constants.NOT_ADMIN
			}
			return utils.ErrorResponse(c, fiber.StatusForbidden, message, errors.New("role not allowed"))
		}
		return c.Next()
	}
}
