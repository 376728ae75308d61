package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

func Login(c *fiber.Ctx) error {
	input, ok := c.Locals("loginInput").(model.LoginInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse login input"))
	}
	if helper.Settings == nil || helper.Settings.JWTSecret == "" {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_NOT_CONFIGURED, helper.ErrNotConfigured)
	}

	claim, ok := helper.Authenticate(helper.Settings, input.Username, input.Password)
	if !ok {
		logrus.WithField("username", input.Username).Warn("failed login attempt")
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_CREDENTIALS, errors.New("invalid credentials"))
	}

	token, err := helper.GenerateAccessToken(claim, helper.Settings.JWTSecret, helper.Clock.Now())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token.AccessToken,
		HTTPOnly: true,
		SameSite: "Lax",
		Secure:   helper.Settings.IsProduction(),
		Path:     "/",
		Expires:  time.Unix(token.ExpiresAt, 0),
	})

	logrus.WithFields(logrus.Fields{"username": claim.Username, "role": claim.Role}).Info("user logged in")
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": constants.LOGIN_SUCCESS,
		"account": claim,
		"token":   token,
	})
}

func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
		Expires:  time.Unix(0, 0),
	})
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": constants.LOGOUT_SUCCESS})
}

func Me(c *fiber.Ctx) error {
	claim, isAdmin := helper.GetInfoAccountFromToken(c)
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"account": claim,
		"isAdmin": isAdmin,
	})
}
