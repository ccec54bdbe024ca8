package handlers

import (
	"github.com/dtbase/dtbase/internal/ingress"
	"github.com/gofiber/fiber/v2"
)

// IngressHandler handles data ingestion routes
type IngressHandler struct {
	Service *ingress.Service
}

// IngestWeather handles POST /api/ingress/weather
// @Summary Ingest weather data from OpenWeatherMap
// @Description from_dt and to_dt accept RFC 3339 datetimes or the literal "present"
// @Tags Ingress
// @Accept json
// @Produce json
// @Param body body ingress.Params true "Ingestion parameters"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /ingress/weather [post]
func (h *IngressHandler) IngestWeather(c *fiber.Ctx) error {
	var params ingress.Params
	if resp := parseBody(c, &params, "from_dt", "to_dt", "api_key", "latitude", "longitude"); resp != nil {
		return resp
	}

	stored, err := h.Service.Ingest(c.Context(), params)
	if err != nil {
		return serviceErrorResponse(c, err, "ingestWeather")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":        "Successfully ingressed weather data.",
		"records_stored": stored,
	})
}
