package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watchstore/internal/domain"
)

// The promotion feeds serve bare JSON arrays, not envelopes. Clients treat
// any other shape as malformed.
func listPromotionsHandler(promotions PromotionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := promotions.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if list == nil {
			list = []domain.Promotion{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func productsWithPromotionsHandler(promotions PromotionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := promotions.ListByProduct(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if list == nil {
			list = []domain.ProductPromotions{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func createPromotionHandler(promotions PromotionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in domain.Promotion
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, "invalid body")
			return
		}
		created, err := promotions.Create(c.Request.Context(), in)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}
