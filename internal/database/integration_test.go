package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/database"
	"github.com/dtbase/dtbase/internal/services"
)

// TestWithPostgreSQL migrates the full schema into a real PostgreSQL
// container and exercises a model run round-trip against it.
func TestWithPostgreSQL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "testdb",
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
			},
			WaitingFor: wait.ForListeningPort(nat.Port("5432/tcp")).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	host, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := postgresContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.Config{
		DBType:            "postgres",
		DBHost:            host,
		DBPort:            port.Port(),
		DBDatabase:        "testdb",
		DBUser:            "testuser",
		DBPassword:        "testpass",
		DBConnectionLimit: 5,
	}

	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Run("ModelRunRoundTrip", func(t *testing.T) {
		testModelRunRoundTrip(t, db)
	})
}

func testModelRunRoundTrip(t *testing.T, db *gorm.DB) {
	if _, err := services.InsertModel(db, "integration model"); err != nil {
		t.Fatalf("Failed to insert model: %v", err)
	}
	if _, err := services.InsertModelMeasure(db, "predicted value", "", "float"); err != nil {
		t.Fatalf("Failed to insert measure: %v", err)
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	runID, err := services.InsertModelRun(db, services.InsertModelRunArgs{
		ModelName:           "integration model",
		ScenarioDescription: "default",
		CreateScenario:      true,
		MeasuresAndValues: []services.MeasureValues{{
			MeasureName: "predicted value",
			Values:      []interface{}{1.0, 2.0, 3.0},
			Timestamps:  []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)},
		}},
	})
	if err != nil {
		t.Fatalf("Failed to insert run: %v", err)
	}

	readings, err := services.GetModelRun(db, runID, "predicted value")
	if err != nil {
		t.Fatalf("Failed to read run back: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("Expected 3 readings, got %d", len(readings))
	}
}
