package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/signalement-service/internal/service"
)

// StatisticsHandler serves the dashboard payload.
type StatisticsHandler struct {
	statistics *service.StatisticsService
}

// NewStatisticsHandler constructs handler.
func NewStatisticsHandler(statistics *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statistics: statistics}
}

// Global GET /api/statistics. Always renders; internal failures degrade to
// an all-zero payload inside the service.
func (h *StatisticsHandler) Global(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.statistics.Global(c.Context())})
}
