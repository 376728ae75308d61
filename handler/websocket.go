package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"zipline_manager/helper"
	"zipline_manager/model"
)

// UpgradeScanFeed only lets websocket upgrades reach the scan feed.
func UpgradeScanFeed(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// ScanFeedConnection streams every ticket scan to a staff dashboard.
func ScanFeedConnection(c *websocket.Conn) {
	claim, _ := c.Locals("account").(model.TokenClaim)
	log := logrus.WithField("username", claim.Username)
	log.Info("scan feed connected")

	events, unsubscribe := helper.Scans.Subscribe()
	defer func() {
		unsubscribe()
		c.Close()
		log.Info("scan feed disconnected")
	}()

	// The dashboard never sends anything; reading only detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case payload := <-events:
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.WithError(err).Debug("writing scan event")
				return
			}
		}
	}
}
