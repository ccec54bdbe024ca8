package handlers

import (
	"fmt"
	"time"

	"github.com/dtbase/dtbase/internal/services"
	"github.com/dtbase/dtbase/internal/types"
	"github.com/dtbase/dtbase/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SensorHandler handles sensor type, sensor and reading routes
type SensorHandler struct {
	DB *gorm.DB
}

// InsertSensorType handles POST /api/sensor/insert_sensor_type
// @Summary Insert a sensor type
// @Description Measures are created if missing and reused when an identical one exists
// @Tags Sensor
// @Accept json
// @Produce json
// @Param body body object true "{name, description, measures}"
// @Success 201 {object} models.SensorType
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /sensor/insert_sensor_type [post]
func (h *SensorHandler) InsertSensorType(c *fiber.Ctx) error {
	var body struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Measures    types.FlexList[services.MeasureSpec] `json:"measures"`
	}
	if resp := parseBody(c, &body, "name", "measures"); resp != nil {
		return resp
	}

	sensorType, err := services.InsertSensorType(h.DB, body.Name, body.Description, body.Measures.Slice())
	if err != nil {
		return serviceErrorResponse(c, err, "insertSensorType")
	}
	return c.Status(fiber.StatusCreated).JSON(sensorType)
}

// ListSensorTypes handles GET /api/sensor/list_sensor_types
// @Summary List sensor types with their measures
// @Tags Sensor
// @Produce json
// @Success 200 {array} models.SensorType
// @Router /sensor/list_sensor_types [get]
func (h *SensorHandler) ListSensorTypes(c *fiber.Ctx) error {
	result, err := services.ListSensorTypes(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listSensorTypes")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// DeleteSensorType handles DELETE /api/sensor/delete_sensor_type
// @Summary Delete a sensor type
// @Tags Sensor
// @Accept json
// @Produce json
// @Param body body object true "{name}"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /sensor/delete_sensor_type [delete]
func (h *SensorHandler) DeleteSensorType(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if resp := parseBody(c, &body, "name"); resp != nil {
		return resp
	}

	if err := services.DeleteSensorType(h.DB, body.Name); err != nil {
		return serviceErrorResponse(c, err, "deleteSensorType")
	}
	return utils.MessageResponse(c, "Sensor type deleted.")
}

// InsertSensor handles POST /api/sensor/insert_sensor
// @Summary Insert a sensor
// @Description A unique identifier is generated when none is given
// @Tags Sensor
// @Accept json
// @Produce json
// @Param body body object true "{type_name, unique_identifier?, name?, notes?}"
// @Success 201 {object} models.Sensor
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sensor/insert_sensor [post]
func (h *SensorHandler) InsertSensor(c *fiber.Ctx) error {
	var body struct {
		TypeName         string `json:"type_name"`
		UniqueIdentifier string `json:"unique_identifier"`
		Name             string `json:"name"`
		Notes            string `json:"notes"`
	}
	if resp := parseBody(c, &body, "type_name"); resp != nil {
		return resp
	}

	sensor, err := services.InsertSensor(h.DB, body.TypeName, body.UniqueIdentifier, body.Name, body.Notes)
	if err != nil {
		return serviceErrorResponse(c, err, "insertSensor")
	}
	return c.Status(fiber.StatusCreated).JSON(sensor)
}

// ListSensors handles GET /api/sensor/list_sensors/:type?
// @Summary List sensors, optionally filtered by type
// @Tags Sensor
// @Accept json
// @Produce json
// @Param type path string false "Sensor type name"
// @Param body body object false "{type_name?}"
// @Success 200 {array} models.Sensor
// @Router /sensor/list_sensors/{type} [get]
func (h *SensorHandler) ListSensors(c *fiber.Ctx) error {
	var body struct {
		TypeName string `json:"type_name"`
	}
	if len(c.Body()) > 0 {
		if resp := parseBody(c, &body); resp != nil {
			return resp
		}
	}
	if typeName := c.Params("type"); typeName != "" {
		body.TypeName = typeName
	}

	result, err := services.ListSensors(h.DB, body.TypeName)
	if err != nil {
		return serviceErrorResponse(c, err, "listSensors")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// DeleteSensor handles DELETE /api/sensor/delete_sensor
// @Summary Delete a sensor
// @Tags Sensor
// @Accept json
// @Produce json
// @Param body body object true "{unique_identifier}"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /sensor/delete_sensor [delete]
func (h *SensorHandler) DeleteSensor(c *fiber.Ctx) error {
	var body struct {
		UniqueIdentifier string `json:"unique_identifier"`
	}
	if resp := parseBody(c, &body, "unique_identifier"); resp != nil {
		return resp
	}

	if err := services.DeleteSensor(h.DB, body.UniqueIdentifier); err != nil {
		return serviceErrorResponse(c, err, "deleteSensor")
	}
	return utils.MessageResponse(c, "Sensor deleted.")
}

// InsertSensorReadings handles POST /api/sensor/insert_sensor_readings
// @Summary Insert a batch of sensor readings
// @Description There must be as many readings as timestamps; values must match the measure's datatype
// @Tags Sensor
// @Accept json
// @Produce json
// @Param body body object true "{measure_name, unique_identifier, readings, timestamps}"
// @Success 201 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sensor/insert_sensor_readings [post]
func (h *SensorHandler) InsertSensorReadings(c *fiber.Ctx) error {
	var body struct {
		MeasureName      string           `json:"measure_name"`
		UniqueIdentifier string           `json:"unique_identifier"`
		Readings         []interface{}    `json:"readings"`
		Timestamps       []types.FlexTime `json:"timestamps"`
	}
	if resp := parseBody(c, &body, "measure_name", "unique_identifier", "readings", "timestamps"); resp != nil {
		return resp
	}

	timestamps := make([]time.Time, 0, len(body.Timestamps))
	for _, ts := range body.Timestamps {
		timestamps = append(timestamps, ts.Time())
	}

	if err := services.InsertSensorReadings(h.DB, body.MeasureName, body.UniqueIdentifier, body.Readings, timestamps); err != nil {
		return serviceErrorResponse(c, err, "insertSensorReadings")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Readings inserted."})
}

// GetSensorReadings handles GET /api/sensor/sensor_readings
// @Summary Get readings for one sensor and measure in a time window
// @Description dt_from and dt_to bounds are inclusive
// @Tags Sensor
// @Accept json
// @Produce json
// @Param body body object true "{measure_name, unique_identifier, dt_from, dt_to}"
// @Success 200 {array} services.ValueReading
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /sensor/sensor_readings [get]
func (h *SensorHandler) GetSensorReadings(c *fiber.Ctx) error {
	var body struct {
		MeasureName      string `json:"measure_name"`
		UniqueIdentifier string `json:"unique_identifier"`
		DtFrom           string `json:"dt_from"`
		DtTo             string `json:"dt_to"`
	}
	if resp := parseBody(c, &body, "measure_name", "unique_identifier", "dt_from", "dt_to"); resp != nil {
		return resp
	}

	dtFrom, err := types.ParseTimestamp(body.DtFrom)
	if err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid dt_from: %v", err), fiber.StatusBadRequest, "validation.datetime")
	}
	dtTo, err := types.ParseTimestamp(body.DtTo)
	if err != nil {
		return utils.ErrorResponse(c, fmt.Sprintf("Invalid dt_to: %v", err), fiber.StatusBadRequest, "validation.datetime")
	}

	result, err := services.GetSensorReadings(h.DB, body.MeasureName, body.UniqueIdentifier, dtFrom, dtTo)
	if err != nil {
		return serviceErrorResponse(c, err, "getSensorReadings")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// ListSensorMeasures handles GET /api/sensor/list_sensor_measures
// @Summary List sensor measures
// @Tags Sensor
// @Produce json
// @Success 200 {array} models.SensorMeasure
// @Router /sensor/list_sensor_measures [get]
func (h *SensorHandler) ListSensorMeasures(c *fiber.Ctx) error {
	result, err := services.ListSensorMeasures(h.DB)
	if err != nil {
		return serviceErrorResponse(c, err, "listSensorMeasures")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
