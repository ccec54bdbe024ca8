package models

import "time"

// SensorType groups sensors that report the same set of measures, e.g.
// "weather" or "temperature-humidity".
type SensorType struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"uniqueIndex;size:255;not null"`
	Description string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Measures    []SensorMeasure `gorm:"many2many:sensor_type_measures;"`
}

// SensorMeasure is a named, typed quantity a sensor can report.
type SensorMeasure struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"uniqueIndex;size:255;not null"`
	Units     string `gorm:"size:64"`
	Datatype  string `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sensor is one physical or virtual device. UniqueIdentifier is the stable
// external handle; a UUID is assigned when the caller doesn't provide one.
type Sensor struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	TypeID           uint64 `gorm:"not null;index"`
	UniqueIdentifier string `gorm:"uniqueIndex;size:255;not null"`
	Name             string `gorm:"size:255"`
	Notes            string `gorm:"size:1024"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Type             SensorType `gorm:"foreignKey:TypeID;constraint:OnDelete:RESTRICT"`
}

// Per-datatype reading tables, keyed by sensor and measure.

type SensorStringReading struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	SensorID  uint64    `gorm:"not null;index"`
	MeasureID uint64    `gorm:"not null;index"`
}

type SensorIntegerReading struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     int64     `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	SensorID  uint64    `gorm:"not null;index"`
	MeasureID uint64    `gorm:"not null;index"`
}

type SensorFloatReading struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     float64   `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	SensorID  uint64    `gorm:"not null;index"`
	MeasureID uint64    `gorm:"not null;index"`
}

type SensorBooleanReading struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Value     bool      `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
	SensorID  uint64    `gorm:"not null;index"`
	MeasureID uint64    `gorm:"not null;index"`
}

func (SensorType) TableName() string           { return "sensor_type" }
func (SensorMeasure) TableName() string        { return "sensor_measure" }
func (Sensor) TableName() string               { return "sensor" }
func (SensorStringReading) TableName() string  { return "sensor_string_reading" }
func (SensorIntegerReading) TableName() string { return "sensor_integer_reading" }
func (SensorFloatReading) TableName() string   { return "sensor_float_reading" }
func (SensorBooleanReading) TableName() string { return "sensor_boolean_reading" }
