package user

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
)

type Handler struct {
	service Service
	auth    gin.HandlerFunc
	admin   gin.HandlerFunc
}

func NewHandler(service Service, auth, admin gin.HandlerFunc) *Handler {
	return &Handler{service: service, auth: auth, admin: admin}
}

func (h *Handler) SetAdmin(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetAdmin(c.Request.Context(), address, *req.IsAdmin); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "is_admin": *req.IsAdmin})
}

func (h *Handler) GetMe(c *gin.Context) {
	address := c.GetString("user_address")
	u, err := h.service.EnsureUser(c.Request.Context(), address)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) GetUser(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	u, err := h.service.GetUser(c.Request.Context(), address)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("/me", h.auth, h.GetMe)
		users.GET("/:address", h.admin, h.GetUser)
		users.PUT("/:address/roles", h.admin, h.SetAdmin)
	}
}
