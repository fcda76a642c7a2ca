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

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers", middleware.RequireAuth())
	{
		customers.GET("", h.ListCustomers)
		customers.GET("/:id", h.GetCustomer)
		customers.POST("", h.CreateCustomer)
		customers.PUT("/:id", h.UpdateCustomer)
		customers.DELETE("/:id", h.DeleteCustomer)
	}
}

// @Summary      List customers
// @Tags         Customers
// @Produce      json
// @Param        page   query int    false "Page"
// @Param        limit  query int    false "Page size"
// @Param        search query string false "Name filter"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)
	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"customers": customers,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// @Summary      Get a customer
// @Tags         Customers
// @Produce      json
// @Param        id path int true "Customer ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "customer not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// @Summary      Create a customer
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Param        request body service.CustomerRequest true "Customer"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Security     BearerAuth
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// @Summary      Update a customer
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Param        id      path int                     true "Customer ID"
// @Param        request body service.CustomerRequest true "Customer"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), middleware.UserID(c), id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "customer not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// @Summary      Delete a customer
// @Description  Deletes the customer; their orders remain with the reference cleared
// @Tags         Customers
// @Produce      json
// @Param        id path int true "Customer ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response
// @Security     BearerAuth
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.customerService.DeleteCustomer(c.Request.Context(), middleware.UserID(c), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "customer not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id}))
}
