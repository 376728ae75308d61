package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

// publicClosures loads the published closures for display. A storage failure
// degrades to the static calendar instead of failing the page.
func publicClosures(c *fiber.Ctx) []model.Closure {
	if helper.Closures == nil {
		return nil
	}
	closures, _, err := helper.Closures.Load(c.UserContext())
	if err != nil {
		logrus.WithError(err).Warn("closures unavailable, showing static calendar")
		return nil
	}
	return closures
}

// GetToday answers what the site should display right now.
func GetToday(c *fiber.Ctx) error {
	now := helper.Clock.Now()
	day := helper.Schedule.ClassifyDay(now, publicClosures(c), now)
	return utils.SuccessResponse(c, fiber.StatusOK, day)
}

func GetCalendar(c *fiber.Ctx) error {
	year := c.Locals("year").(int)
	month := c.Locals("month").(time.Month)

	days := helper.Schedule.Month(year, month, publicClosures(c), helper.Clock.Now())
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"month": fmt.Sprintf("%04d-%02d", year, int(month)),
		"days":  days,
	})
}

func GetCalendarDay(c *fiber.Ctx) error {
	date := c.Locals("date").(time.Time)
	day := helper.Schedule.ClassifyDay(date, publicClosures(c), helper.Clock.Now())
	return utils.SuccessResponse(c, fiber.StatusOK, day)
}

func GetClosures(c *fiber.Ctx) error {
	closures := publicClosures(c)
	if closures == nil {
		closures = []model.Closure{}
	}
	return utils.SuccessResponse(c, fiber.StatusOK, closures)
}

func GetProducts(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, fiber.StatusOK, helper.Schedule.Products())
}
