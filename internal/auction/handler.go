package auction

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/stats"
	"github.com/rada-network/launchpad/internal/websocket"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
	hub     *websocket.Hub
	stats   stats.Service
	auth    gin.HandlerFunc
	admin   gin.HandlerFunc
}

func NewHandler(service Service, hub *websocket.Hub, stats stats.Service, auth, admin gin.HandlerFunc) *Handler {
	return &Handler{service: service, hub: hub, stats: stats, auth: auth, admin: admin}
}

func (h *Handler) PlaceBid(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		Quantity  int64           `json:"quantity" binding:"required"`
		PriceEach decimal.Decimal `json:"price_each" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := c.GetString("user_address")

	bidIndex, err := h.service.PlaceBid(c.Request.Context(), poolID, caller, req.Quantity, req.PriceEach)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.stats.Invalidate(c.Request.Context(), poolID)
	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:  poolID,
		Event:   websocket.EventBidPlaced,
		Address: caller,
		Data: gin.H{
			"bid_index":  bidIndex,
			"quantity":   req.Quantity,
			"price_each": req.PriceEach,
		},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "bid_index": bidIndex})
}

func (h *Handler) IncreaseBid(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	bidIndex, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid index"})
		return
	}
	var req struct {
		Quantity  int64           `json:"quantity" binding:"required"`
		PriceEach decimal.Decimal `json:"price_each" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := c.GetString("user_address")

	if err := h.service.IncreaseBid(c.Request.Context(), poolID, bidIndex, caller, req.Quantity, req.PriceEach); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.stats.Invalidate(c.Request.Context(), poolID)
	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:  poolID,
		Event:   websocket.EventBidIncreased,
		Address: caller,
		Data: gin.H{
			"bid_index":  bidIndex,
			"quantity":   req.Quantity,
			"price_each": req.PriceEach,
		},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "bid_index": bidIndex})
}

func (h *Handler) HandleEndAuction(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		BidIndexes    []int64 `json:"bid_indexes" binding:"required"`
		WinQuantities []int64 `json:"win_quantities" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.HandleEndAuction(c.Request.Context(), poolID, req.BidIndexes, req.WinQuantities); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.stats.Invalidate(c.Request.Context(), poolID)
	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:    poolID,
		Event:     websocket.EventAuctionSettled,
		Data:      gin.H{"settled_bids": len(req.BidIndexes)},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "settled_bids": len(req.BidIndexes)})
}

func (h *Handler) Claim(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	bidIndex, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid index"})
		return
	}
	caller := c.GetString("user_address")

	if err := h.service.Claim(c.Request.Context(), poolID, bidIndex, caller); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:    poolID,
		Event:     websocket.EventClaimed,
		Address:   caller,
		Data:      gin.H{"bid_index": bidIndex},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "bid_index": bidIndex})
}

func (h *Handler) ClaimAll(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	caller := c.GetString("user_address")

	if err := h.service.ClaimAll(c.Request.Context(), poolID, caller); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:    poolID,
		Event:     websocket.EventClaimed,
		Address:   caller,
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID})
}

func (h *Handler) GetBid(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	bidIndex, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bid index"})
		return
	}
	bid, err := h.service.GetBid(c.Request.Context(), poolID, bidIndex)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (h *Handler) GetBids(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	bidder := c.Query("bidder")
	bids, err := h.service.GetBids(c.Request.Context(), poolID, bidder)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "bids": bids})
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	auctions := router.Group("/auctions")
	{
		auctions.GET("/:id/bids", h.GetBids)
		auctions.GET("/:id/bids/:index", h.GetBid)
		auctions.POST("/:id/bids", h.auth, h.PlaceBid)
		auctions.PUT("/:id/bids/:index", h.auth, h.IncreaseBid)
		auctions.POST("/:id/bids/:index/claim", h.auth, h.Claim)
		auctions.POST("/:id/claim-all", h.auth, h.ClaimAll)
		auctions.POST("/:id/settle", h.admin, h.HandleEndAuction)
	}
}
