package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"
	"shoptrack/pkg/pagination"
	"shoptrack/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products", middleware.RequireAuth())
	{
		products.GET("", h.ListProducts)
		products.GET("/all", h.ListAllProducts)
		products.GET("/:id", h.GetProduct)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid id"))
		return 0, false
	}
	return id, true
}

// @Summary      List products
// @Tags         Products
// @Produce      json
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Param        search query string false "Name filter"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	products, total, err := h.productService.ListProducts(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// @Summary      List every product
// @Description  Unpaginated catalogue for order-entry pickers
// @Tags         Products
// @Produce      json
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/products/all [get]
func (h *ProductHandler) ListAllProducts(c *gin.Context) {
	products, err := h.productService.ListAllProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// @Summary      Get a product
// @Tags         Products
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Create a product
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        request body service.CreateProductRequest true "Product"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Security     BearerAuth
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	product, err := h.productService.CreateProduct(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		if errors.Is(err, service.ErrNegativePrice) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// @Summary      Update a product
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        id      path int                          true "Product ID"
// @Param        request body service.UpdateProductRequest true "Product"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "product not found"))
		case errors.Is(err, service.ErrNegativePrice):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// @Summary      Delete a product
// @Description  Deletes the product and every order line referencing it
// @Tags         Products
// @Produce      json
// @Param        id path int true "Product ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(c.Request.Context(), middleware.UserID(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}
