package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/dtbase/dtbase/internal/handlers"
)

// setupSensorApp builds a Fiber app with the sensor routes registered
func setupSensorApp(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	handler := &handlers.SensorHandler{DB: db}
	app.Post("/api/sensor/insert_sensor_type", handler.InsertSensorType)
	app.Get("/api/sensor/list_sensor_types", handler.ListSensorTypes)
	app.Post("/api/sensor/insert_sensor", handler.InsertSensor)
	app.Get("/api/sensor/list_sensors/:type?", handler.ListSensors)
	app.Post("/api/sensor/insert_sensor_readings", handler.InsertSensorReadings)
	app.Get("/api/sensor/sensor_readings", handler.GetSensorReadings)
	return app
}

func TestSensorEndpointsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	app := setupSensorApp(db)

	status, result := doJSON(t, app, "POST", "/api/sensor/insert_sensor_type",
		map[string]interface{}{
			"name":        "Weather",
			"description": "Weather measurements",
			"measures": []map[string]interface{}{
				{"name": "temperature", "units": "degrees Celsius", "datatype": "float"},
			},
		})
	if status != 201 {
		t.Fatalf("Expected status 201 inserting a type, got %d: %v", status, result)
	}

	status, result = doJSON(t, app, "POST", "/api/sensor/insert_sensor",
		map[string]interface{}{"type_name": "Weather", "unique_identifier": "station-1"})
	if status != 201 {
		t.Fatalf("Expected status 201 inserting a sensor, got %d: %v", status, result)
	}

	status, result = doJSON(t, app, "POST", "/api/sensor/insert_sensor_readings",
		map[string]interface{}{
			"measure_name":      "temperature",
			"unique_identifier": "station-1",
			"readings":          []float64{20.0, 21.0},
			"timestamps":        []string{"2026-08-01T00:00:00Z", "2026-08-01T01:00:00Z"},
		})
	if status != 201 {
		t.Fatalf("Expected status 201 inserting readings, got %d: %v", status, result)
	}

	req := map[string]interface{}{
		"measure_name":      "temperature",
		"unique_identifier": "station-1",
		"dt_from":           "2026-08-01T00:00:00Z",
		"dt_to":             "2026-08-01T01:00:00Z",
	}
	status, _ = doJSON(t, app, "GET", "/api/sensor/sensor_readings", req)
	if status != 200 {
		t.Fatalf("Expected status 200 reading back, got %d", status)
	}
}

func TestInsertSensorReadingsUnknownSensor(t *testing.T) {
	db := setupTestDB(t)
	app := setupSensorApp(db)

	status, result := doJSON(t, app, "POST", "/api/sensor/insert_sensor_readings",
		map[string]interface{}{
			"measure_name":      "temperature",
			"unique_identifier": "no such sensor",
			"readings":          []float64{20.0},
			"timestamps":        []string{"2026-08-01T00:00:00Z"},
		})
	if status != 404 {
		t.Fatalf("Expected status 404, got %d: %v", status, result)
	}
}
