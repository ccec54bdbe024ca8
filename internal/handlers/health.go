package handlers

import (
	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles the health check route
type HealthHandler struct {
	DB     *gorm.DB
	Config *config.Config
}

// Healthz handles GET /healthz
// @Summary Service health
// @Description Reports database connectivity and weather API reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /healthz [get]
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Config, h.DB)
	status := fiber.StatusOK
	if result.Status == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
