package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/database"
	"github.com/dtbase/dtbase/internal/handlers"
	"github.com/dtbase/dtbase/internal/ingress"
	"github.com/dtbase/dtbase/internal/middleware"
	"github.com/dtbase/dtbase/internal/scheduler"

	_ "github.com/dtbase/dtbase/docs/api" // Swagger docs
)

// @title DTBase API
// @version 1.0.0
// @description Digital twin data platform: models, scenarios, runs, sensors and locations
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/dtbase/dtbase

// @host localhost:3000
// @BasePath /api
// @schemes http https

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("dtbase")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health check
	healthHandler := &handlers.HealthHandler{DB: db, Config: cfg}
	app.Get("/healthz", healthHandler.Healthz)

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())

	// Create handlers
	modelHandler := &handlers.ModelHandler{DB: db}
	sensorHandler := &handlers.SensorHandler{DB: db}
	locationHandler := &handlers.LocationHandler{DB: db}
	ingressService := ingress.NewService(db, cfg.WeatherBaseURL)
	ingressHandler := &handlers.IngressHandler{Service: ingressService}

	// Model routes
	model := api.Group("/model")
	model.Post("/insert_model", modelHandler.InsertModel)
	model.Get("/list_models", modelHandler.ListModels)
	model.Delete("/delete_model", modelHandler.DeleteModel)
	model.Post("/insert_model_scenario", modelHandler.InsertModelScenario)
	model.Get("/list_model_scenarios", modelHandler.ListModelScenarios)
	model.Delete("/delete_model_scenario", modelHandler.DeleteModelScenario)
	model.Post("/insert_model_measure", modelHandler.InsertModelMeasure)
	model.Get("/list_model_measures", modelHandler.ListModelMeasures)
	model.Delete("/delete_model_measure", modelHandler.DeleteModelMeasure)
	model.Post("/insert_model_run", modelHandler.InsertModelRun)
	model.Get("/list_model_runs", modelHandler.ListModelRuns)
	model.Get("/get_model_run", modelHandler.GetModelRun)
	model.Get("/get_model_run_sensor_measure", modelHandler.GetModelRunSensorMeasure)

	// Sensor routes
	sensor := api.Group("/sensor")
	sensor.Post("/insert_sensor_type", sensorHandler.InsertSensorType)
	sensor.Get("/list_sensor_types", sensorHandler.ListSensorTypes)
	sensor.Delete("/delete_sensor_type", sensorHandler.DeleteSensorType)
	sensor.Post("/insert_sensor", sensorHandler.InsertSensor)
	sensor.Get("/list_sensors/:type?", sensorHandler.ListSensors)
	sensor.Delete("/delete_sensor", sensorHandler.DeleteSensor)
	sensor.Post("/insert_sensor_readings", sensorHandler.InsertSensorReadings)
	sensor.Get("/sensor_readings", sensorHandler.GetSensorReadings)
	sensor.Get("/list_sensor_measures", sensorHandler.ListSensorMeasures)

	// Location routes
	location := api.Group("/location")
	location.Post("/insert_location_schema", locationHandler.InsertLocationSchema)
	location.Get("/list_location_schemas", locationHandler.ListLocationSchemas)
	location.Get("/list_location_identifiers", locationHandler.ListLocationIdentifiers)
	location.Get("/get_schema_details", locationHandler.GetSchemaDetails)
	location.Post("/insert_location", locationHandler.InsertLocation)
	location.Get("/list_locations/:schema", locationHandler.ListLocations)
	location.Delete("/delete_location_schema", locationHandler.DeleteLocationSchema)

	// Ingress routes
	ingressGroup := api.Group("/ingress")
	ingressGroup.Post("/weather", ingressHandler.IngestWeather)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Periodic weather ingestion, when configured
	sched := scheduler.New(cfg, ingressService)
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}
