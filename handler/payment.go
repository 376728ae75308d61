package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/constants"
	"zipline_manager/helper"
	"zipline_manager/utils"
)

// StripeWebhook issues tickets for paid sessions. A non-2xx answer makes the
// provider retry, so any fulfillment failure releases the event claim.
func StripeWebhook(c *fiber.Ctx) error {
	if helper.Payments == nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_NOT_CONFIGURED, helper.ErrNotConfigured)
	}

	event, err := helper.Payments.ParseWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		logrus.WithError(err).Warn("rejected webhook")
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.WEBHOOK_INVALID_SIGNATURE, err)
	}
	log := logrus.WithFields(logrus.Fields{"eventId": event.ID, "type": event.Type, "sessionId": event.SessionID})

	switch event.Type {
	case utils.EventCheckoutCompleted, utils.EventAsyncPaymentSucceeded:
		ctx := c.UserContext()
		claimed, err := helper.Events.Claim(ctx, event.ID)
		if err != nil {
			log.WithError(err).Warn("event dedupe unavailable, processing anyway")
			claimed = true
		}
		if !claimed {
			log.Info("duplicate webhook event")
			return c.JSON(fiber.Map{"received": true, "duplicate": true})
		}

		_, created, err := helper.Fulfiller.EnsureTickets(ctx, event.SessionID)
		if err != nil {
			if releaseErr := helper.Events.Release(ctx, event.ID); releaseErr != nil {
				log.WithError(releaseErr).Warn("releasing event claim")
			}
			if errors.Is(err, helper.ErrSessionNotPaid) {
				log.Info("session not paid yet, waiting for async payment")
				return c.JSON(fiber.Map{"received": true})
			}
			log.WithError(err).Error("issuing tickets from webhook")
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
		}

		if len(created) > 0 {
			go helper.DeliverTickets(context.Background(), created)
		}
		return c.JSON(fiber.Map{"received": true, "created": len(created)})

	case utils.EventCheckoutExpired:
		log.Info("checkout session expired")
	default:
		log.Debug("ignored webhook event")
	}
	return c.JSON(fiber.Map{"received": true})
}
