package routers

import (
	"github.com/gin-gonic/gin"

	"lumicart-io/api/internal/container"
	"lumicart-io/api/internal/middleware"
	"lumicart-io/api/pkg/controllers"
)

// InitRoute builds the storefront-facing router around the cart session
// service.
func InitRoute(sc *container.ServiceContainer) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CorsMiddleware())

	api := router.Group("/v1", middleware.CartRateLimiter(sc.Redis))
	{
		api.GET("/ping", controllers.Ping)

		api.GET("/products/:productId", sc.CatalogController.GetProduct())

		cart := api.Group("/cart")
		{
			cart.GET("", sc.CartController.GetCart())
			cart.POST("", sc.CartController.AddItem())
			cart.DELETE("", sc.CartController.ClearCart())

			cart.PUT("/:itemId/quantity", sc.CartController.SetQuantity())
			cart.PUT("/:itemId/option", sc.CartController.SetOption())
			cart.PUT("/:itemId/note", sc.CartController.SetNote())
			cart.POST("/:itemId/images", sc.CartController.AddImages())
			cart.DELETE("/:itemId/images/:index", sc.CartController.RemoveImage())
			cart.DELETE("/:itemId", sc.CartController.DeleteItem())
		}

		api.GET("/checkout/eligibility", sc.CartController.CheckoutEligibility())
		api.DELETE("/session", sc.CartController.CloseSession())
	}

	return router
}
