package validate

import (
	"github.com/gofiber/fiber/v2"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

// Month reads ?month=YYYY-MM, defaulting to the current month.
func Month() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("month")
		if raw == "" {
			raw = helper.Clock.Now().In(helper.Schedule.Location()).Format("2006-01")
		}
		year, month, err := utils.ParseYearMonth(raw)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_MONTH, err)
		}
		c.Locals("year", year)
		c.Locals("month", month)
		return c.Next()
	}
}

// Date checks the :date route param.
func Date() fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := helper.Schedule.ParseDate(c.Params("date"))
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DATE, err)
		}
		c.Locals("date", date)
		return c.Next()
	}
}

func ToggleClosure() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ToggleClosureInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DATE, err)
		}
		c.Locals("toggleInput", input)
		return c.Next()
	}
}

func PublishClosures() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.PublishClosuresInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}
		c.Locals("publishInput", input)
		return c.Next()
	}
}
