package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dtbase/dtbase/internal/handlers"
	"github.com/dtbase/dtbase/internal/models"
	"github.com/dtbase/dtbase/internal/services"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Model{},
		&models.ModelScenario{},
		&models.ModelMeasure{},
		&models.ModelRun{},
		&models.ModelProduct{},
		&models.ModelStringValue{},
		&models.ModelIntegerValue{},
		&models.ModelFloatValue{},
		&models.ModelBooleanValue{},
		&models.SensorType{},
		&models.SensorMeasure{},
		&models.Sensor{},
		&models.SensorStringReading{},
		&models.SensorIntegerReading{},
		&models.SensorFloatReading{},
		&models.SensorBooleanReading{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// setupModelApp builds a Fiber app with the model routes registered
func setupModelApp(db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	handler := &handlers.ModelHandler{DB: db}
	app.Post("/api/model/insert_model", handler.InsertModel)
	app.Get("/api/model/list_models", handler.ListModels)
	app.Delete("/api/model/delete_model", handler.DeleteModel)
	app.Post("/api/model/insert_model_measure", handler.InsertModelMeasure)
	app.Post("/api/model/insert_model_run", handler.InsertModelRun)
	app.Get("/api/model/list_model_runs", handler.ListModelRuns)
	app.Get("/api/model/get_model_run", handler.GetModelRun)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	var result map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

func TestInsertModelEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := setupModelApp(db)

	status, result := doJSON(t, app, "POST", "/api/model/insert_model",
		map[string]interface{}{"name": "test model"})
	if status != 201 {
		t.Fatalf("Expected status 201, got %d: %v", status, result)
	}
	if result["name"] != "test model" {
		t.Errorf("Expected model name in response, got %v", result)
	}
}

func TestInsertModelMissingKey(t *testing.T) {
	db := setupTestDB(t)
	app := setupModelApp(db)

	status, result := doJSON(t, app, "POST", "/api/model/insert_model",
		map[string]interface{}{})
	if status != 400 {
		t.Fatalf("Expected status 400, got %d: %v", status, result)
	}
	if result["ok"] != false {
		t.Error("Expected ok=false in the error envelope")
	}
}

func TestDeleteModelNotFound(t *testing.T) {
	db := setupTestDB(t)
	app := setupModelApp(db)

	status, result := doJSON(t, app, "DELETE", "/api/model/delete_model",
		map[string]interface{}{"name": "no such model"})
	if status != 404 {
		t.Fatalf("Expected status 404, got %d: %v", status, result)
	}
}

func TestDeleteModelConflict(t *testing.T) {
	db := setupTestDB(t)
	app := setupModelApp(db)

	if _, err := services.InsertModel(db, "test model"); err != nil {
		t.Fatalf("Failed to insert model: %v", err)
	}
	if _, err := services.InsertModelScenario(db, "test model", "s1", nil); err != nil {
		t.Fatalf("Failed to insert scenario: %v", err)
	}

	status, result := doJSON(t, app, "DELETE", "/api/model/delete_model",
		map[string]interface{}{"name": "test model"})
	if status != 409 {
		t.Fatalf("Expected status 409, got %d: %v", status, result)
	}
	if result["type"] != "conflict" {
		t.Errorf("Expected error type 'conflict', got %v", result["type"])
	}
}

func TestInsertModelRunEndpoint(t *testing.T) {
	db := setupTestDB(t)
	app := setupModelApp(db)

	if _, err := services.InsertModel(db, "test model"); err != nil {
		t.Fatalf("Failed to insert model: %v", err)
	}
	if _, err := services.InsertModelMeasure(db, "predicted temperature", "degrees Celsius", "float"); err != nil {
		t.Fatalf("Failed to insert measure: %v", err)
	}

	payload := map[string]interface{}{
		"model_name":           "test model",
		"scenario_description": "business as usual",
		"create_scenario":      true,
		"measures_and_values": []map[string]interface{}{{
			"measure_name": "predicted temperature",
			"values":       []float64{21.5, 22.0},
			"timestamps":   []string{"2026-08-01T12:00:00Z", "2026-08-01T13:00:00Z"},
		}},
	}
	status, result := doJSON(t, app, "POST", "/api/model/insert_model_run", payload)
	if status != 201 {
		t.Fatalf("Expected status 201, got %d: %v", status, result)
	}
	if result["run_id"] == nil {
		t.Fatal("Expected run_id in response")
	}

	// Read the run back through the API.
	runID := result["run_id"]
	status, _ = doJSON(t, app, "GET", "/api/model/get_model_run",
		map[string]interface{}{"run_id": runID, "measure_name": "predicted temperature"})
	if status != 200 {
		t.Fatalf("Expected status 200 reading the run, got %d", status)
	}
}

func TestListModelRunsBadDatetime(t *testing.T) {
	db := setupTestDB(t)
	app := setupModelApp(db)

	if _, err := services.InsertModel(db, "test model"); err != nil {
		t.Fatalf("Failed to insert model: %v", err)
	}

	status, result := doJSON(t, app, "GET", "/api/model/list_model_runs",
		map[string]interface{}{
			"model_name": "test model",
			"dt_from":    "not a datetime",
			"dt_to":      time.Now().UTC().Format(time.RFC3339),
		})
	if status != 400 {
		t.Fatalf("Expected status 400, got %d: %v", status, result)
	}
}
