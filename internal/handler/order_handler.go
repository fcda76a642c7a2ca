package handler

import (
	"errors"
	"net/http"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"
	"shoptrack/pkg/pagination"
	"shoptrack/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders", middleware.RequireAuth())
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", h.DeleteOrder)
	}
}

func badLineRequest(err error) bool {
	return errors.Is(err, service.ErrNegativeOrderLine) || errors.Is(err, service.ErrDuplicateOrderLine)
}

// @Summary      List orders
// @Tags         Orders
// @Produce      json
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"orders": orders,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// @Summary      Get an order with its lines
// @Tags         Orders
// @Produce      json
// @Param        id path int true "Order ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "order not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// @Summary      Create an order
// @Description  Creates a buy or sell order with its lines. Zero-amount lines are dropped.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        request body service.CreateOrderRequest true "Order"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Security     BearerAuth
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		if badLineRequest(err) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// @Summary      Update an order
// @Description  Updates header fields and, when lines are provided, replaces the full line set. The buy/sell flag cannot change.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Param        id      path int                        true "Order ID"
// @Param        request body service.UpdateOrderRequest true "Order"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	order, err := h.orderService.UpdateOrder(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "order not found"))
		case badLineRequest(err):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// @Summary      Delete an order
// @Description  Deletes the order and its lines
// @Tags         Orders
// @Produce      json
// @Param        id path int true "Order ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(c.Request.Context(), middleware.UserID(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "order not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}
