package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/model"
	"zipline_manager/utils"
)

// CreateCheckout prices the cart from the season calendar and opens a payment
// session. Client-side prices are never trusted.
func CreateCheckout(c *fiber.Ctx) error {
	input, ok := c.Locals("checkoutInput").(model.CheckoutInput)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_PARSE_DATA_TO_LOCALS, errors.New("failed to parse checkout input"))
	}
	if helper.Payments == nil {
		return publicError(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, helper.ErrNotConfigured)
	}

	lines, err := priceCart(input.Items)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.UNKNOWN_SEASON, err)
	}

	locale := input.Locale
	if locale == "" {
		locale = "fr"
	}
	appURL := helper.Settings.AppURL
	result, err := helper.Payments.CreateCheckoutSession(c.UserContext(), utils.CheckoutRequest{
		Lines:         lines,
		CustomerEmail: input.Email,
		Locale:        locale,
		SuccessURL:    appURL + "/billets?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     appURL + "/billetterie",
	})
	if err != nil {
		return publicError(c, fiber.StatusBadGateway, constants.CHECKOUT_FAILED, err)
	}

	logrus.WithFields(logrus.Fields{"sessionId": result.SessionID, "lines": len(lines)}).Info("checkout session created")
	return utils.SuccessResponse(c, fiber.StatusOK, result)
}

// priceCart merges items of the same product and applies the season price.
func priceCart(items []model.CartItem) ([]model.CheckoutLine, error) {
	lines := make([]model.CheckoutLine, 0, len(items))
	index := make(map[string]int)
	for _, item := range items {
		season, ok := helper.Schedule.Season(item.Season)
		if !ok {
			return nil, fmt.Errorf("unknown season %q", item.Season)
		}
		key := fmt.Sprintf("%s/%t", season.Name, item.IsGift)
		if i, seen := index[key]; seen {
			lines[i].Quantity += item.Quantity
			continue
		}
		index[key] = len(lines)
		lines = append(lines, model.CheckoutLine{
			Season:    season.Name,
			Label:     season.Label,
			UnitPrice: season.Price,
			Quantity:  item.Quantity,
			IsGift:    item.IsGift,
		})
	}
	return lines, nil
}
