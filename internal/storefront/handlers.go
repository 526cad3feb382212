package storefront

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"watchstore/internal/domain"
	"watchstore/internal/identity"
	"watchstore/internal/notify"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Delta int `json:"delta"`
}

type loginRequest struct {
	UserID string `json:"userId"`
}

// buildRouter wires the storefront session routes.
func buildRouter(reg *Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/session", beginSessionHandler(reg))
	router.POST("/session/login", loginHandler(reg))
	router.POST("/session/logout", logoutHandler(reg))

	authed := router.Group("/", sessionMiddleware(reg))
	{
		authed.GET("/cart", cartViewHandler)
		authed.POST("/cart/items", addItemHandler(reg))
		authed.PATCH("/cart/items/:itemID", updateItemHandler)
		authed.DELETE("/cart/items/:itemID", removeItemHandler)
		authed.DELETE("/cart", clearCartHandler)

		authed.POST("/cart/items/:itemID/select", selectHandler)
		authed.POST("/cart/items/:itemID/deselect", deselectHandler)
		authed.POST("/cart/select-all", toggleSelectAllHandler)

		authed.POST("/checkout", checkoutHandler)
		authed.GET("/notifications", notificationsHandler)
	}

	return router
}

const sessionKey = "storefront.session"

func sessionMiddleware(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := reg.Resolve(bearerToken(c))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	return strings.TrimPrefix(h, "Bearer ")
}

func beginSessionHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _, err := reg.Begin(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"token": token})
	}
}

func loginHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginRequest
		if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.UserID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
			return
		}
		sess, err := reg.Login(c.Request.Context(), bearerToken(c), in.UserID)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": sess.UserID()})
	}
}

func logoutHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		reg.Logout(bearerToken(c))
		c.Status(http.StatusNoContent)
	}
}

func cartViewHandler(c *gin.Context) {
	sess := sessionFrom(c)
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"lines":       sess.Checkout.Lines(ctx),
		"totals":      sess.Checkout.Totals(ctx),
		"allSelected": sess.Checkout.AllSelected(),
	})
}

func addItemHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFrom(c)
		var in addItemRequest
		if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.ProductID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId required"})
			return
		}
		product, err := reg.api.Product(c.Request.Context(), in.ProductID)
		if err != nil {
			respondCartError(c, err)
			return
		}
		item, err := sess.Store.AddItem(c.Request.Context(), *product, in.Quantity)
		if err != nil {
			respondCartError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func updateItemHandler(c *gin.Context) {
	sess := sessionFrom(c)
	var in updateItemRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := sess.Store.UpdateQuantity(c.Request.Context(), c.Param("itemID"), in.Delta); err != nil {
		respondCartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func removeItemHandler(c *gin.Context) {
	sess := sessionFrom(c)
	if err := sess.Checkout.RemoveItem(c.Request.Context(), c.Param("itemID")); err != nil {
		respondCartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func clearCartHandler(c *gin.Context) {
	sess := sessionFrom(c)
	if err := sess.Checkout.ClearCart(c.Request.Context()); err != nil {
		respondCartError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func selectHandler(c *gin.Context) {
	sessionFrom(c).Checkout.Select(c.Param("itemID"))
	c.Status(http.StatusNoContent)
}

func deselectHandler(c *gin.Context) {
	sessionFrom(c).Checkout.Deselect(c.Param("itemID"))
	c.Status(http.StatusNoContent)
}

func toggleSelectAllHandler(c *gin.Context) {
	sess := sessionFrom(c)
	sess.Checkout.ToggleSelectAll()
	c.JSON(http.StatusOK, gin.H{"allSelected": sess.Checkout.AllSelected()})
}

func checkoutHandler(c *gin.Context) {
	sess := sessionFrom(c)
	snap, err := sess.Checkout.CheckoutSnapshot(c.Request.Context())
	if err != nil {
		respondCartError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func notificationsHandler(c *gin.Context) {
	notifications := sessionFrom(c).DrainNotifications()
	if notifications == nil {
		notifications = []notify.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrMutationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "another change to this item is still pending"})
	case errors.Is(err, domain.ErrOutOfStock), errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrGuestCheckout):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in to check out"})
	case errors.Is(err, domain.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no items selected"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
