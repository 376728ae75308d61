package validate

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

var validate = validator.New()

var ticketIDPattern = regexp.MustCompile(`^[A-Z0-9-]{3,32}$`)

// TicketId checks the :ticketId route param and stores it normalized.
func TicketId() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := helper.NormalizeTicketID(c.Params("ticketId"))
		if !ticketIDPattern.MatchString(id) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.TICKET_NOT_FOUND, errors.New("ticket id is malformed"))
		}
		c.Locals("ticketId", id)
		return c.Next()
	}
}

func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.LoginInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, err)
		}
		c.Locals("loginInput", input)
		return c.Next()
	}
}

func Contact() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ContactInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}
		c.Locals("contactInput", input)
		return c.Next()
	}
}
