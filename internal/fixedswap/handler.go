package fixedswap

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/stats"
	"github.com/rada-network/launchpad/internal/websocket"
)

type Handler struct {
	service Service
	hub     *websocket.Hub
	stats   stats.Service
	auth    gin.HandlerFunc
}

func NewHandler(service Service, hub *websocket.Hub, stats stats.Service, auth gin.HandlerFunc) *Handler {
	return &Handler{service: service, hub: hub, stats: stats, auth: auth}
}

func (h *Handler) PlaceOrder(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		Quantity int64 `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := c.GetString("user_address")

	order, err := h.service.PlaceOrder(c.Request.Context(), poolID, caller, req.Quantity)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.stats.Invalidate(c.Request.Context(), poolID)
	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:  poolID,
		Event:   websocket.EventOrderFilled,
		Address: caller,
		Data: gin.H{
			"quantity": order.Quantity,
			"amount":   order.Amount,
			"item_ids": order.ItemIDs,
		},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, order)
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	swaps := router.Group("/swaps")
	{
		swaps.POST("/:id/orders", h.auth, h.PlaceOrder)
	}
}
