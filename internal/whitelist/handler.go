package whitelist

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
)

type Handler struct {
	service Service
	admin   gin.HandlerFunc
}

func NewHandler(service Service, admin gin.HandlerFunc) *Handler {
	return &Handler{service: service, admin: admin}
}

type listRequest struct {
	Title     string   `json:"title" binding:"required"`
	Addresses []string `json:"addresses"`
	Allow     *bool    `json:"allow"`
}

func (h *Handler) AddList(c *gin.Context) {
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	allow := true
	if req.Allow != nil {
		allow = *req.Allow
	}
	listID, err := h.service.AddList(c.Request.Context(), req.Title, req.Addresses, allow)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"list_id": listID})
}

func (h *Handler) UpdateList(c *gin.Context) {
	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}
	var req listRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	allow := true
	if req.Allow != nil {
		allow = *req.Allow
	}
	if err := h.service.UpdateList(c.Request.Context(), listID, req.Title, req.Addresses, allow); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list_id": listID})
}

func (h *Handler) GetListAddress(c *gin.Context) {
	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}
	addresses, err := h.service.GetListAddress(c.Request.Context(), listID)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list_id": listID, "addresses": addresses})
}

func (h *Handler) IsValid(c *gin.Context) {
	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}
	address := c.Query("address")
	valid, err := h.service.IsValid(c.Request.Context(), address, []int64{listID})
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "valid": valid})
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	lists := router.Group("/whitelists")
	{
		lists.POST("", h.admin, h.AddList)
		lists.PUT("/:id", h.admin, h.UpdateList)
		lists.GET("/:id/addresses", h.GetListAddress)
		lists.GET("/:id/valid", h.IsValid)
	}
}
