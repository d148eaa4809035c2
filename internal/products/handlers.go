package products

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// productResponse is the public JSON shape for a product template
type productResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
}

// ListProductsHandler returns all registered products for the storefront
func ListProductsHandler(registry *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		templates := registry.List()

		out := make([]productResponse, 0, len(templates))
		for _, tpl := range templates {
			out = append(out, productResponse{
				Name:        tpl.Name,
				DisplayName: tpl.DisplayName,
				Description: tpl.Description,
				PriceCents:  tpl.PriceCents,
				Currency:    tpl.Currency,
			})
		}

		c.JSON(http.StatusOK, gin.H{"products": out})
	}
}
