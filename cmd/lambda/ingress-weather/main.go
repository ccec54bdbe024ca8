// ingress-weather Lambda runs a weather ingestion on demand.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"github.com/dtbase/dtbase/internal/config"
	"github.com/dtbase/dtbase/internal/database"
	"github.com/dtbase/dtbase/internal/ingress"
	"github.com/dtbase/dtbase/internal/services"
	"gorm.io/gorm"
)

var (
	db      *gorm.DB
	service *ingress.Service
)

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Println("Starting OpenWeatherMap ingress function.")

	var params ingress.Params
	if err := json.Unmarshal([]byte(req.Body), &params); err != nil {
		return respond(400, "Request body must be valid JSON."), nil
	}

	stored, err := service.Ingest(ctx, params)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return respond(400, err.Error()), nil
		}
		return respond(500, err.Error()), nil
	}

	log.Println("Finished OpenWeatherMap ingress.")
	return respond(200, fmt.Sprintf("Successfully ingressed weather data. Stored %d records.", stored)), nil
}

func respond(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"message": message})
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err = database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	service = ingress.NewService(db, cfg.WeatherBaseURL)
	awslambda.Start(handler)
}
