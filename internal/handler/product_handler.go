package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"micro_marketplace/internal/model"
	"micro_marketplace/internal/service"
)

// ProductHandler handles catalog and favorites requests
type ProductHandler struct {
	service service.ProductService
	log     zerolog.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(s service.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{service: s, log: log}
}

// writeServiceError maps service errors to responses. It returns false when
// err is nil.
func (h *ProductHandler) writeServiceError(c *gin.Context, err error, action string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrBlankField):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	default:
		h.log.Error().Err(err).Str("action", action).Msg("product request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to " + action})
	}
	return true
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := model.ProductFilters{
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}
	page, err := h.service.List(c.Request.Context(), filters)
	if h.writeServiceError(c, err, "list products") {
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.service.Get(c.Request.Context(), id)
	if h.writeServiceError(c, err, "get product") {
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}

	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	product, err := h.service.Create(c.Request.Context(), userID, req)
	if h.writeServiceError(c, err, "create product") {
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	product, err := h.service.Update(c.Request.Context(), id, userID, req)
	if h.writeServiceError(c, err, "update product") {
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if h.writeServiceError(c, h.service.Delete(c.Request.Context(), id, userID), "delete product") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

func (h *ProductHandler) AddFavorite(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if h.writeServiceError(c, h.service.AddFavorite(c.Request.Context(), userID, id), "add favorite") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Added to favorites"})
}

func (h *ProductHandler) RemoveFavorite(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if h.writeServiceError(c, h.service.RemoveFavorite(c.Request.Context(), userID, id), "remove favorite") {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

// RegisterProductRoutes registers catalog routes
func (h *ProductHandler) RegisterProductRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	products := rg.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)

		products.POST("", authMW, adminMW, h.CreateProduct)
		products.PUT("/:id", authMW, adminMW, h.UpdateProduct)
		products.DELETE("/:id", authMW, adminMW, h.DeleteProduct)

		products.POST("/:id/favorite", authMW, h.AddFavorite)
		products.DELETE("/:id/favorite", authMW, h.RemoveFavorite)
	}
}
