package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lumicart-io/api/pkg/services"
	"lumicart-io/api/pkg/util"
)

// CatalogController serves product reads, option definitions included. This
// is the one surface allowed to answer from the degraded snapshot store.
type CatalogController struct {
	catalog  *services.CatalogService
	resolver *services.OptionResolver
}

func InitCatalogController(catalog *services.CatalogService, resolver *services.OptionResolver) *CatalogController {
	return &CatalogController{catalog: catalog, resolver: resolver}
}

// GetProduct returns the product with its renderable option choices and
// translated labels.
func (cc *CatalogController) GetProduct() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := withTimeout()
		defer cancel()

		product, degraded, err := cc.catalog.GetProduct(ctx, c.Param("productId"))
		if err != nil {
			util.HandleError(c, statusForError(err), err)
			return
		}

		options := make([]gin.H, 0, len(product.Options))
		for _, def := range product.Options {
			options = append(options, gin.H{
				"name":     def.Name,
				"label":    cc.resolver.Label(def.Name),
				"type":     def.Type,
				"required": def.Required,
				"choices":  cc.resolver.Choices(def),
			})
		}

		util.HandleSuccessMeta(c, http.StatusOK, "success", product, gin.H{
			"degraded": degraded,
			"options":  options,
		})
	}
}
