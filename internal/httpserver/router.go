package httpserver

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"watchstore/internal/domain"
	cartsvc "watchstore/internal/service/cart"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	Items(ctx context.Context, userID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, userID string, in cartsvc.AddItemInput) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID string, in cartsvc.UpdateItemInput) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type PromotionService interface {
	List(ctx context.Context) ([]domain.Promotion, error)
	ListByProduct(ctx context.Context) ([]domain.ProductPromotions, error)
	Create(ctx context.Context, p domain.Promotion) (*domain.Promotion, error)
}

// Deps carries the services the routes are built on.
type Deps struct {
	Carts      CartService
	Products   ProductService
	Promotions PromotionService
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	{
		api.GET("/carts/:userID", getCartHandler(deps.Carts))
		api.POST("/carts/:userID/items", addCartItemHandler(deps.Carts))
		api.DELETE("/carts/:userID", clearCartHandler(deps.Carts))
		api.PATCH("/cart-items/:itemID", updateCartItemHandler(deps.Carts))
		api.DELETE("/cart-items/:itemID", removeCartItemHandler(deps.Carts))

		api.GET("/products", listProductsHandler(deps.Products))
		api.GET("/products/:id", getProductHandler(deps.Products))

		api.GET("/promotions", listPromotionsHandler(deps.Promotions))
		api.GET("/products-with-promotions", productsWithPromotionsHandler(deps.Promotions))
		api.POST("/promotions", createPromotionHandler(deps.Promotions))
	}

	return router
}
