package models

import "time"

// LocationSchema describes what it takes to identify a location, e.g.
// "latitude-longitude" or "aisle-column-shelf".
type LocationSchema struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"uniqueIndex;size:255;not null"`
	Description string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Identifiers []LocationIdentifier `gorm:"many2many:location_schema_identifiers;"`
}

// LocationIdentifier is one named, typed coordinate of a schema.
type LocationIdentifier struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	Units     string `gorm:"size:64"`
	Datatype  string `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is a single place, identified by one value per identifier of its
// schema.
type Location struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	SchemaID  uint64 `gorm:"not null;index"`
	CreatedAt time.Time
	Schema    LocationSchema `gorm:"foreignKey:SchemaID;constraint:OnDelete:RESTRICT"`
}

// Per-datatype coordinate value tables.

type LocationStringValue struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Value        string `gorm:"not null"`
	LocationID   uint64 `gorm:"not null;index"`
	IdentifierID uint64 `gorm:"not null;index"`
}

type LocationIntegerValue struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Value        int64  `gorm:"not null"`
	LocationID   uint64 `gorm:"not null;index"`
	IdentifierID uint64 `gorm:"not null;index"`
}

type LocationFloatValue struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	Value        float64 `gorm:"not null"`
	LocationID   uint64  `gorm:"not null;index"`
	IdentifierID uint64  `gorm:"not null;index"`
}

type LocationBooleanValue struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Value        bool   `gorm:"not null"`
	LocationID   uint64 `gorm:"not null;index"`
	IdentifierID uint64 `gorm:"not null;index"`
}

func (LocationSchema) TableName() string       { return "location_schema" }
func (LocationIdentifier) TableName() string   { return "location_identifier" }
func (Location) TableName() string             { return "location" }
func (LocationStringValue) TableName() string  { return "location_string_value" }
func (LocationIntegerValue) TableName() string { return "location_integer_value" }
func (LocationFloatValue) TableName() string   { return "location_float_value" }
func (LocationBooleanValue) TableName() string { return "location_boolean_value" }
