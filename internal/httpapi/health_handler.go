package httpapi

import "github.com/gofiber/fiber/v2"

// HealthHandler reports scheduler liveness.
type HealthHandler struct {
	isRunning func() bool
}

func NewHealthHandler(isRunning func() bool) *HealthHandler {
	return &HealthHandler{isRunning: isRunning}
}

// Health handles GET /health.
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	if !h.isRunning() {
		return serviceUnavailable(c, "scheduler is not running")
	}
	return success(c, fiber.Map{"status": "healthy"})
}

// Ready handles GET /ready.
//
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if !h.isRunning() {
		return serviceUnavailable(c, "scheduler is not running")
	}
	return success(c, fiber.Map{"status": "ready"})
}

// Live handles GET /live.
//
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Router /live [get]
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return success(c, fiber.Map{"status": "alive"})
}
