package handler

import (
	"net/http"

	"shoptrack/internal/middleware"
	"shoptrack/internal/service"
	"shoptrack/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/api/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.GET("/me", middleware.RequireAuth(), h.Me)
	}
}

// @Summary      Register a shop account
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body service.RegisterUserRequest true "Credentials"
// @Success      201 {object} response.Response
// @Failure      400 {object} response.Response
// @Router       /api/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// @Summary      Log in
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request body service.LoginUserRequest true "Credentials"
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	token, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, token))
}

// @Summary      Current account
// @Tags         Users
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response
// @Security     BearerAuth
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
