package products

import (
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// ValidateOrderOptions validates a buyer's customization options against a
// product's JSON Schema file
func ValidateOrderOptions(schemaPath string, options map[string]interface{}) error {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaData)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	result := schema.Validate(options)
	if !result.IsValid() {
		// Collect all validation errors
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		return fmt.Errorf("options validation failed: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}
