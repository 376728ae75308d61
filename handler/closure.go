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

func GetAdminClosures(c *fiber.Ctx) error {
	closures, revision, err := helper.Closures.Load(c.UserContext())
	if err != nil {
		return storageError(c, err)
	}
	if closures == nil {
		closures = []model.Closure{}
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ClosureList{Closures: closures, Revision: revision})
}

// PublishClosures replaces the whole closure list. The revision the admin
// screen loaded must still be current.
func PublishClosures(c *fiber.Ctx) error {
	input, ok := c.Locals("publishInput").(model.PublishClosuresInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse closures input"))
	}
	claim, _ := helper.GetInfoAccountFromToken(c)

	list, err := helper.Closures.Publish(c.UserContext(), input.Closures, input.Revision)
	switch {
	case errors.Is(err, helper.ErrNoReasons):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_CLOSURE_REASONS, err)
	case errors.Is(err, helper.ErrInvalidClosure):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DATE, err)
	case err != nil:
		logrus.WithError(err).WithField("by", claim.Username).Warn("publishing closures failed")
		return storageError(c, err)
	}

	logrus.WithFields(logrus.Fields{"by": claim.Username, "count": len(list.Closures)}).Info("closures published")
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message":  constants.CLOSURES_PUBLISHED,
		"closures": list.Closures,
		"revision": list.Revision,
	})
}

// ToggleClosure closes an open date or reopens a closed one.
func ToggleClosure(c *fiber.Ctx) error {
	input, ok := c.Locals("toggleInput").(model.ToggleClosureInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse toggle input"))
	}
	claim, _ := helper.GetInfoAccountFromToken(c)

	result, err := helper.Closures.Toggle(c.UserContext(), input.Date, input.Reasons)
	switch {
	case errors.Is(err, helper.ErrNoReasons):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_CLOSURE_REASONS, err)
	case errors.Is(err, helper.ErrInvalidClosure):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DATE, err)
	case err != nil:
		return storageError(c, err)
	}

	message := constants.CLOSURE_REMOVED
	if result.Closed {
		message = constants.CLOSURE_ADDED
	}
	logrus.WithFields(logrus.Fields{"by": claim.Username, "date": input.Date, "closed": result.Closed}).Info("closure toggled")
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": message,
		"result":  result,
	})
}
