package main

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/dtbase/dtbase/internal/models"
)

func main() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	// Auto-migrate to see what GORM creates
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
		&models.LocationSchema{},
		&models.LocationIdentifier{},
		&models.Location{},
		&models.LocationStringValue{},
		&models.LocationIntegerValue{},
		&models.LocationFloatValue{},
		&models.LocationBooleanValue{},
	)
	if err != nil {
		log.Fatal(err)
	}

	// Get the schema
	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table'").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw(fmt.Sprintf("SELECT sql FROM sqlite_master WHERE name='%s'", table)).Scan(&schema)
		fmt.Println(schema)
	}
}
