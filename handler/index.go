package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/database"
	"zipline_manager/helper"
	"zipline_manager/utils"
)

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// storageError maps document store failures for staff and admin screens. The
// provider text is kept so the operator can act on it.
func storageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, database.ErrConflict):
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.ERROR_STALE_REVISION, err)
	case errors.Is(err, database.ErrNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ERROR_DOCUMENT_NOT_FOUND, err)
	case errors.Is(err, database.ErrUnauthorized):
		return utils.ErrorResponse(c, fiber.StatusBadGateway, constants.ERROR_STORAGE_UNAUTHORIZED, err)
	case errors.Is(err, database.ErrNotConfigured), errors.Is(err, helper.ErrNotConfigured):
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_NOT_CONFIGURED, err)
	}
	return utils.ErrorResponse(c, fiber.StatusBadGateway, constants.ERROR_STORAGE, err)
}

// publicError answers a customer-facing failure with the support phone number
// and hides the underlying error.
func publicError(c *fiber.Ctx, status int, format string, err error) error {
	logrus.WithError(err).WithField("path", c.Path()).Error("public request failed")
	return utils.ErrorResponse(c, status, fmt.Sprintf(format, supportPhone()), nil)
}

func supportPhone() string {
	if helper.Settings == nil {
		return ""
	}
	return helper.Settings.SupportPhone
}
