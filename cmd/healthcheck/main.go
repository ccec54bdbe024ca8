package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/database"
	"github.com/dtbase/dtbase/internal/services"
)

// Container healthcheck. Prints the health report as JSON and exits
// non-zero when the service is not healthy.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("load configuration", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		fail("connect to database", err)
	}
	defer database.Close(db)

	result := services.HealthCheck(cfg, db)

	report, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fail("encode health report", err)
	}
	fmt.Println(string(report))

	if result.Status != "healthy" {
		os.Exit(1)
	}
}

func fail(what string, err error) {
	fmt.Fprintf(os.Stderr, "healthcheck: %s: %v\n", what, err)
	os.Exit(1)
}
