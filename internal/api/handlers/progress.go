package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	ws "github.com/chynybekuuludastan/sitecloner/internal/api/websocket"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
)

// maxJobIDLength caps client-chosen job ids
const maxJobIDLength = 128

// ProgressHandler streams pipeline events for one job over a websocket
type ProgressHandler struct {
	Hub *ws.Hub
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(hub *ws.Hub) *ProgressHandler {
	return &ProgressHandler{Hub: hub}
}

// Upgrade rejects non-websocket requests and malformed job ids before the upgrade
func (h *ProgressHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id := strings.TrimSpace(c.Params("id"))
	if id == "" || len(id) > maxJobIDLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "invalid job id",
			"category": pipeline.CategoryInput,
		})
	}
	return c.Next()
}

// Stream handles GET /ws/generate/:id
func (h *ProgressHandler) Stream(c *websocket.Conn) {
	h.Hub.HandleConnection(c, strings.TrimSpace(c.Params("id")))
}
