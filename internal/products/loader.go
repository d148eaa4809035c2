package products

import (
	"encoding/json"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InitProducts discovers product templates from the specified directory,
// syncs their metadata to the database, and returns a populated registry.
//
// This function is called at application startup to:
// 1. Discover all product templates from the product directory
// 2. Sync discovered metadata to the database (upsert pattern)
// 3. Return the in-memory registry for use by the application
//
// Non-fatal: logs warnings but does not fail if individual products have issues.
func InitProducts(db *gorm.DB, productDir string) (*Registry, error) {
	registry, err := LoadRegistry(productDir)
	if err != nil {
		return nil, err
	}

	log.Printf("Discovered %d product(s) from %s", registry.Count(), productDir)

	for _, tpl := range registry.List() {
		if err := syncProductToDB(db, tpl); err != nil {
			log.Printf("Warning: failed to sync product %s to database: %v", tpl.Name, err)
			continue
		}
		log.Printf("Synced product to database: %s (version %s)", tpl.Name, tpl.Version)
	}

	return registry, nil
}

// geometry is the JSON blob persisted alongside a product so the mockup
// pipeline can be audited against what was live at order time
type geometry struct {
	BaseImageURL    string      `json:"base_image_url"`
	OverlayImageURL string      `json:"overlay_image_url"`
	Window          Window      `json:"window"`
	QR              QRPlacement `json:"qr"`
}

// syncProductToDB persists or updates a product's metadata in the database.
// Uses an upsert pattern: creates if new, updates if already exists.
func syncProductToDB(db *gorm.DB, tpl *ProductTemplate) error {
	geometryJSON, err := json.Marshal(geometry{
		BaseImageURL:    tpl.BaseImageURL,
		OverlayImageURL: tpl.OverlayImageURL,
		Window:          tpl.Window,
		QR:              tpl.QR,
	})
	if err != nil {
		return err
	}

	var dbProduct Product
	result := db.Where("name = ?", tpl.Name).First(&dbProduct)

	if result.Error == gorm.ErrRecordNotFound {
		// Product doesn't exist - create new record
		dbProduct = Product{
			Name:              tpl.Name,
			DisplayName:       tpl.DisplayName,
			Description:       tpl.Description,
			Version:           tpl.Version,
			SchemaVersion:     tpl.SchemaVersion,
			PriceCents:        tpl.PriceCents,
			Currency:          tpl.Currency,
			Geometry:          datatypes.JSON(geometryJSON),
			OptionsSchemaPath: tpl.OptionsSchemaPath,
			Enabled:           true,
		}
		return db.Create(&dbProduct).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Product exists - update its metadata
	updates := map[string]interface{}{
		"display_name":        tpl.DisplayName,
		"description":         tpl.Description,
		"version":             tpl.Version,
		"schema_version":      tpl.SchemaVersion,
		"price_cents":         tpl.PriceCents,
		"currency":            tpl.Currency,
		"geometry":            datatypes.JSON(geometryJSON),
		"options_schema_path": tpl.OptionsSchemaPath,
	}

	return db.Model(&dbProduct).Updates(updates).Error
}
