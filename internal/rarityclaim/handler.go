package rarityclaim

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/websocket"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
	hub     *websocket.Hub
	auth    gin.HandlerFunc
	admin   gin.HandlerFunc
}

func NewHandler(service Service, hub *websocket.Hub, auth, admin gin.HandlerFunc) *Handler {
	return &Handler{service: service, hub: hub, auth: auth, admin: admin}
}

type poolRequest struct {
	PoolID          int64           `json:"pool_id" binding:"required"`
	Title           string          `json:"title"`
	ItemCollection  string          `json:"item_collection" binding:"required"`
	TokenAsset      string          `json:"token_asset" binding:"required"`
	TokenPrice      decimal.Decimal `json:"token_price"`
	TotalAllocation int64           `json:"total_allocation" binding:"required"`
}

func (h *Handler) bindPool(c *gin.Context) (*Config, bool) {
	var req poolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if !common.IsHexAddress(req.ItemCollection) || !common.IsHexAddress(req.TokenAsset) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset address"})
		return nil, false
	}
	return &Config{
		PoolID:          req.PoolID,
		Title:           req.Title,
		ItemCollection:  req.ItemCollection,
		TokenAsset:      req.TokenAsset,
		TokenPrice:      req.TokenPrice,
		TotalAllocation: req.TotalAllocation,
	}, true
}

func (h *Handler) AddPool(c *gin.Context) {
	cfg, ok := h.bindPool(c)
	if !ok {
		return
	}
	if err := h.service.AddPool(c.Request.Context(), *cfg); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": cfg.PoolID})
}

func (h *Handler) UpdatePool(c *gin.Context) {
	cfg, ok := h.bindPool(c)
	if !ok {
		return
	}
	if err := h.service.UpdatePool(c.Request.Context(), *cfg); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": cfg.PoolID})
}

func (h *Handler) UpdateRarityAllocations(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		Rarities    []int64 `json:"rarities" binding:"required"`
		Allocations []int64 `json:"allocations" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateRarityAllocations(c.Request.Context(), poolID, req.Rarities, req.Allocations); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "allocations": len(req.Rarities)})
}

func (h *Handler) PublishPool(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		Published *bool `json:"published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Published {
		err = h.service.PublishPool(c.Request.Context(), poolID)
	} else {
		err = h.service.UnpublishPool(c.Request.Context(), poolID)
	}
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "published": *req.Published})
}

func (h *Handler) Claim(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		ItemIDs []int64 `json:"item_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caller := c.GetString("user_address")

	results, err := h.service.Claim(c.Request.Context(), poolID, caller, req.ItemIDs)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:    poolID,
		Event:     websocket.EventClaimed,
		Address:   caller,
		Data:      gin.H{"items": len(req.ItemIDs)},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "claims": results})
}

func (h *Handler) GetPool(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	p, err := h.service.GetPool(c.Request.Context(), poolID)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetAllocations(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	allocations, err := h.service.GetAllocations(c.Request.Context(), poolID)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "allocations": allocations})
}

func (h *Handler) GetDepositedTokens(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	deposited, err := h.service.GetDepositedTokens(c.Request.Context(), poolID)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "deposited": deposited})
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/claims")
	{
		claims.GET("/:id", h.GetPool)
		claims.GET("/:id/allocations", h.GetAllocations)
		claims.GET("/:id/deposited", h.GetDepositedTokens)
		claims.POST("/:id/claim", h.auth, h.Claim)
		claims.POST("", h.admin, h.AddPool)
		claims.PUT("/:id", h.admin, h.UpdatePool)
		claims.PUT("/:id/allocations", h.admin, h.UpdateRarityAllocations)
		claims.PUT("/:id/publish", h.admin, h.PublishPool)
	}
}
