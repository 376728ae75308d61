package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

func SendContact(c *fiber.Ctx) error {
	input, ok := c.Locals("contactInput").(model.ContactInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse contact input"))
	}
	if helper.Contact == nil {
		return publicError(c, fiber.StatusInternalServerError, constants.CONTACT_FAILED, helper.ErrNotConfigured)
	}
	if err := helper.Contact.Send(input); err != nil {
		return publicError(c, fiber.StatusBadGateway, constants.CONTACT_FAILED, err)
	}

	logrus.WithField("from", input.Email).Info("contact message forwarded")
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"message": constants.CONTACT_SENT})
}
