package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watchstore/internal/domain"
)

func listProductsHandler(products ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := products.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if list == nil {
			list = []domain.Product{}
		}
		c.JSON(http.StatusOK, list)
	}
}

func getProductHandler(products ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := products.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
