package products

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product represents a discovered print product with its metadata
type Product struct {
	gorm.Model
	Name              string         `gorm:"uniqueIndex;not null"`
	DisplayName       string
	Description       string         `gorm:"type:text"`
	Version           string         `gorm:"not null"`
	SchemaVersion     string         `gorm:"column:schema_version;not null;default:'v1'"`
	PriceCents        int64          `gorm:"not null;default:0"`
	Currency          string         `gorm:"not null;default:'usd'"`
	Geometry          datatypes.JSON `gorm:"type:jsonb"`
	OptionsSchemaPath string         `gorm:"column:options_schema_path"`
	Enabled           bool           `gorm:"default:true"`
}
