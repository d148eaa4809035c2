package products

import (
	"fmt"
	"log"
	"sort"
)

// Registry holds discovered product templates in memory, indexed by name.
// Provides methods for registration, lookup, and listing.
type Registry struct {
	products map[string]*ProductTemplate
}

// NewRegistry creates a new empty product registry.
func NewRegistry() *Registry {
	return &Registry{
		products: make(map[string]*ProductTemplate),
	}
}

// Register adds a product to the registry.
// Returns an error if a product with the same name is already registered.
func (r *Registry) Register(tpl *ProductTemplate) error {
	if _, exists := r.products[tpl.Name]; exists {
		return fmt.Errorf("product already registered: %s", tpl.Name)
	}
	r.products[tpl.Name] = tpl
	return nil
}

// Get retrieves a product by name.
// Returns the product template and a boolean indicating if it was found.
func (r *Registry) Get(name string) (*ProductTemplate, bool) {
	tpl, ok := r.products[name]
	return tpl, ok
}

// List returns all registered products as a slice, sorted by name
// for deterministic ordering.
func (r *Registry) List() []*ProductTemplate {
	products := make([]*ProductTemplate, 0, len(r.products))
	for _, tpl := range r.products {
		products = append(products, tpl)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})

	return products
}

// Count returns the number of registered products.
func (r *Registry) Count() int {
	return len(r.products)
}

// LoadRegistry is a convenience function that discovers products from
// the specified directory and registers them in a new Registry.
//
// Duplicate product names are logged and skipped. An empty registry
// is not an error (no products found is valid).
func LoadRegistry(productDir string) (*Registry, error) {
	discovered, err := DiscoverProducts(productDir)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	for _, tpl := range discovered {
		if err := registry.Register(tpl); err != nil {
			log.Printf("Warning: duplicate product name, skipping %s: %v", tpl.Name, err)
			continue
		}
	}

	return registry, nil
}
