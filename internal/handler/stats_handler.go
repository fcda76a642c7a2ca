package handler

import (
	"net/http"
	"strconv"
	"time"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"
	"shoptrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService service.StatsService
}

func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics", middleware.RequireAuth())
	{
		statsGroup.GET("/order-products", h.GetOrderProductsStats)
		statsGroup.GET("/profit", h.GetProfit)
		statsGroup.GET("/revenue", h.GetRevenue)
		statsGroup.GET("/stock", h.GetProductsStock)
		statsGroup.GET("/inventory-cost", h.GetInventoryCost)
		statsGroup.GET("/profit-series", h.GetProfitSeries)
		statsGroup.GET("/revenue-series", h.GetRevenueSeries)
	}
}

// parseWindow reads the optional from/to epoch-millisecond bounds. Zero means
// unbounded on that side.
func parseWindow(c *gin.Context) (int64, int64, bool) {
	var from, to int64
	var err error
	if s := c.Query("from"); s != "" {
		if from, err = strconv.ParseInt(s, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid from, expected epoch milliseconds"))
			return 0, 0, false
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = strconv.ParseInt(s, 10, 64); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid to, expected epoch milliseconds"))
			return 0, 0, false
		}
	}
	return from, to, true
}

// parseDateRange reads from/to as RFC3339, defaulting to the current month.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now
	var err error
	if s := c.Query("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid from format, expected RFC3339"))
			return time.Time{}, time.Time{}, false
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid to format, expected RFC3339"))
			return time.Time{}, time.Time{}, false
		}
	}
	return from, to, true
}

// @Summary      Per-product sales statistics
// @Description  Sold amount, revenue, matched cost and profit per product within the window
// @Tags         Statistics
// @Produce      json
// @Param        from query int false "Window start (epoch ms, inclusive)"
// @Param        to   query int false "Window end (epoch ms, inclusive)"
// @Success      200 {object} response.Response
// @Failure      400 {object} response.Response "Invalid window"
// @Security     BearerAuth
// @Router       /api/statistics/order-products [get]
func (h *StatsHandler) GetOrderProductsStats(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	stats, err := h.statsService.GetOrderProductsStats(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// @Summary      Aggregate profit
// @Tags         Statistics
// @Produce      json
// @Param        from query int false "Window start (epoch ms, inclusive)"
// @Param        to   query int false "Window end (epoch ms, inclusive)"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics/profit [get]
func (h *StatsHandler) GetProfit(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	profit, err := h.statsService.GetProfit(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, profit))
}

// @Summary      Aggregate revenue
// @Tags         Statistics
// @Produce      json
// @Param        from query int false "Window start (epoch ms, inclusive)"
// @Param        to   query int false "Window end (epoch ms, inclusive)"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics/revenue [get]
func (h *StatsHandler) GetRevenue(c *gin.Context) {
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}
	revenue, err := h.statsService.GetRevenue(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, revenue))
}

// @Summary      Current stock per product
// @Description  All-time signed net quantity (bought minus sold); negative values are preserved
// @Tags         Statistics
// @Produce      json
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics/stock [get]
func (h *StatsHandler) GetProductsStock(c *gin.Context) {
	stock, err := h.statsService.GetProductsStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stock))
}

// @Summary      Inventory cost per product
// @Description  Cost basis of the units currently on hand, all-time
// @Tags         Statistics
// @Produce      json
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics/inventory-cost [get]
func (h *StatsHandler) GetInventoryCost(c *gin.Context) {
	costs, err := h.statsService.GetInventoryCost(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, costs))
}

// @Summary      Day-by-day profit series
// @Tags         Statistics
// @Produce      json
// @Param        from query string false "Range start (RFC3339)"
// @Param        to   query string false "Range end (RFC3339, exclusive day)"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics/profit-series [get]
func (h *StatsHandler) GetProfitSeries(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	points, err := h.statsService.GetProfitSeries(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}

// @Summary      Day-by-day revenue series
// @Tags         Statistics
// @Produce      json
// @Param        from query string false "Range start (RFC3339)"
// @Param        to   query string false "Range end (RFC3339, exclusive day)"
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics/revenue-series [get]
func (h *StatsHandler) GetRevenueSeries(c *gin.Context) {
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	points, err := h.statsService.GetRevenueSeries(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}
