package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"watchstore/internal/domain"
	cartsvc "watchstore/internal/service/cart"
)

// cartResponse is the one documented shape for cart reads. Items is always
// present, even when empty.
type cartResponse struct {
	Items []domain.CartItem `json:"items"`
}

func getCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userID")
		items, err := carts.Items(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []domain.CartItem{}
		}
		c.JSON(http.StatusOK, cartResponse{Items: items})
	}
}

func addCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.AddItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, "invalid body")
			return
		}
		item, err := carts.AddItem(c.Request.Context(), c.Param("userID"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func updateCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.UpdateItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			respondBadRequest(c, "invalid body")
			return
		}
		if in.Quantity < 1 {
			respondBadRequest(c, "quantity must be at least 1")
			return
		}
		item, err := carts.UpdateQuantity(c.Request.Context(), c.Param("itemID"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func removeCartItemHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.RemoveItem(c.Request.Context(), c.Param("itemID")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func clearCartHandler(carts CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := carts.Clear(c.Request.Context(), c.Param("userID")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
