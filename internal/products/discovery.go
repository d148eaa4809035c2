package products

import (
	"log"
	"os"
	"path/filepath"
)

// DiscoverProducts scans the specified directory for product subdirectories
// containing product.yaml manifest files. Invalid templates are logged and
// skipped (not fatal) to allow partial discovery.
//
// Returns all successfully loaded product templates.
func DiscoverProducts(productDir string) ([]*ProductTemplate, error) {
	var templates []*ProductTemplate

	entries, err := os.ReadDir(productDir)
	if err != nil {
		return nil, err
	}

	// Scan each subdirectory for product.yaml
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		manifestPath := filepath.Join(productDir, entry.Name(), "product.yaml")

		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			continue // Skip directories without product.yaml
		}

		tpl, err := LoadProductTemplate(manifestPath)
		if err != nil {
			log.Printf("Warning: failed to load product from %s: %v", entry.Name(), err)
			continue // Log and skip invalid templates
		}

		// Resolve the options schema relative to the product directory
		if tpl.OptionsSchemaPath != "" && !filepath.IsAbs(tpl.OptionsSchemaPath) {
			tpl.OptionsSchemaPath = filepath.Join(productDir, entry.Name(), tpl.OptionsSchemaPath)
		}

		templates = append(templates, tpl)
	}

	return templates, nil
}
