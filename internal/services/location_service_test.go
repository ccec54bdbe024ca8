package services_test

import (
	"errors"
	"testing"

	"github.com/dtbase/dtbase/internal/services"
)

func latLonIdentifiers() []services.IdentifierSpec {
	return []services.IdentifierSpec{
		{Name: "latitude", Units: "degrees", Datatype: "float"},
		{Name: "longitude", Units: "degrees", Datatype: "float"},
	}
}

func TestInsertLocationSchemaAndList(t *testing.T) {
	db := setupTestDB(t)

	schema, err := services.InsertLocationSchema(db, "latlon", "Latitude and longitude", latLonIdentifiers())
	if err != nil {
		t.Fatalf("Failed to insert schema: %v", err)
	}
	if schema.ID == 0 {
		t.Error("Expected a non-zero schema id")
	}

	listed, err := services.ListLocationSchemas(db)
	if err != nil {
		t.Fatalf("Failed to list schemas: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("Expected 1 schema, got %d", len(listed))
	}

	fetched, err := services.LocationSchemaByName(db, "latlon")
	if err != nil {
		t.Fatalf("Failed to fetch schema: %v", err)
	}
	if len(fetched.Identifiers) != 2 {
		t.Errorf("Expected 2 identifiers, got %d", len(fetched.Identifiers))
	}
}

func TestInsertLocationSchemaReusesIdentifiers(t *testing.T) {
	db := setupTestDB(t)

	if _, err := services.InsertLocationSchema(db, "latlon", "", latLonIdentifiers()); err != nil {
		t.Fatalf("Failed to insert first schema: %v", err)
	}

	// A second schema sharing the identifiers reuses them.
	if _, err := services.InsertLocationSchema(db, "latlon2", "", latLonIdentifiers()); err != nil {
		t.Fatalf("Failed to insert schema with shared identifiers: %v", err)
	}
	identifiers, err := services.ListLocationIdentifiers(db)
	if err != nil {
		t.Fatalf("Failed to list identifiers: %v", err)
	}
	if len(identifiers) != 2 {
		t.Errorf("Expected 2 identifiers after reuse, got %d", len(identifiers))
	}

	// Same name, different units: refused, not a raw constraint error.
	_, err = services.InsertLocationSchema(db, "radians", "", []services.IdentifierSpec{
		{Name: "latitude", Units: "radians", Datatype: "float"},
	})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput on a conflicting identifier, got %v", err)
	}
}

func TestInsertLocationRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	if _, err := services.InsertLocationSchema(db, "latlon", "", latLonIdentifiers()); err != nil {
		t.Fatalf("Failed to insert schema: %v", err)
	}

	location, err := services.InsertLocation(db, "latlon", map[string]interface{}{
		"latitude":  51.5,
		"longitude": -0.1,
	})
	if err != nil {
		t.Fatalf("Failed to insert location: %v", err)
	}
	if location.ID == 0 {
		t.Error("Expected a non-zero location id")
	}

	records, err := services.ListLocations(db, "latlon")
	if err != nil {
		t.Fatalf("Failed to list locations: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 location, got %d", len(records))
	}
	if records[0].Coordinates["latitude"].(float64) != 51.5 {
		t.Errorf("Expected latitude 51.5, got %v", records[0].Coordinates["latitude"])
	}
	if records[0].Coordinates["longitude"].(float64) != -0.1 {
		t.Errorf("Expected longitude -0.1, got %v", records[0].Coordinates["longitude"])
	}
}

func TestInsertLocationRejectsBadCoordinates(t *testing.T) {
	db := setupTestDB(t)

	if _, err := services.InsertLocationSchema(db, "latlon", "", latLonIdentifiers()); err != nil {
		t.Fatalf("Failed to insert schema: %v", err)
	}

	// Missing identifier value.
	_, err := services.InsertLocation(db, "latlon", map[string]interface{}{
		"latitude": 51.5,
	})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a missing coordinate, got %v", err)
	}

	// Unknown identifier.
	_, err = services.InsertLocation(db, "latlon", map[string]interface{}{
		"latitude":  51.5,
		"longitude": -0.1,
		"altitude":  100.0,
	})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for an unknown coordinate, got %v", err)
	}

	// Wrong datatype.
	_, err = services.InsertLocation(db, "latlon", map[string]interface{}{
		"latitude":  "not a float",
		"longitude": -0.1,
	})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for a wrong datatype, got %v", err)
	}

	// Unknown schema.
	_, err = services.InsertLocation(db, "no such schema", map[string]interface{}{})
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an unknown schema, got %v", err)
	}
}

func TestDeleteLocationSchema(t *testing.T) {
	db := setupTestDB(t)

	if _, err := services.InsertLocationSchema(db, "latlon", "", latLonIdentifiers()); err != nil {
		t.Fatalf("Failed to insert schema: %v", err)
	}
	if _, err := services.InsertLocation(db, "latlon", map[string]interface{}{
		"latitude":  51.5,
		"longitude": -0.1,
	}); err != nil {
		t.Fatalf("Failed to insert location: %v", err)
	}

	// Refused while locations exist.
	if err := services.DeleteLocationSchema(db, "latlon"); !errors.Is(err, services.ErrInUse) {
		t.Errorf("Expected ErrInUse deleting a schema with locations, got %v", err)
	}
}
