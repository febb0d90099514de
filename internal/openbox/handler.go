package openbox

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

func (h *Handler) AddPool(c *gin.Context) {
	var req struct {
		PoolID         int64           `json:"pool_id" binding:"required"`
		Title          string          `json:"title"`
		ItemCollection string          `json:"item_collection" binding:"required"`
		BoxTokenAsset  string          `json:"box_token_asset" binding:"required"`
		BoxPrice       decimal.Decimal `json:"box_price"`
		StartID        int64           `json:"start_id" binding:"required"`
		EndID          int64           `json:"end_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !common.IsHexAddress(req.ItemCollection) || !common.IsHexAddress(req.BoxTokenAsset) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset address"})
		return
	}
	cfg := Config{
		PoolID:         req.PoolID,
		Title:          req.Title,
		ItemCollection: req.ItemCollection,
		BoxTokenAsset:  req.BoxTokenAsset,
		BoxPrice:       req.BoxPrice,
		StartID:        req.StartID,
		EndID:          req.EndID,
	}
	if err := h.service.AddPool(c.Request.Context(), cfg); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": req.PoolID})
}

func (h *Handler) OpenBox(c *gin.Context) {
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

	itemIDs, err := h.service.OpenBox(c.Request.Context(), poolID, caller, req.Quantity)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.hub.BroadcastPoolEvent(websocket.PoolEvent{
		PoolID:    poolID,
		Event:     websocket.EventBoxOpened,
		Address:   caller,
		Data:      gin.H{"item_ids": itemIDs},
		Timestamp: time.Now(),
	})
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "item_ids": itemIDs})
}

func (h *Handler) UpdateItemRarity(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	itemID, err := strconv.ParseInt(c.Param("item"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}
	var req struct {
		Rarity *int64 `json:"rarity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateItemRarity(c.Request.Context(), poolID, itemID, *req.Rarity); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "item_id": itemID, "rarity": *req.Rarity})
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

func (h *Handler) GetOpenedBoxes(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	opener := c.Query("opener")
	boxes, err := h.service.GetOpenedBoxes(c.Request.Context(), poolID, opener)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "opened": boxes})
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	boxes := router.Group("/boxes")
	{
		boxes.GET("/:id", h.GetPool)
		boxes.GET("/:id/opened", h.GetOpenedBoxes)
		boxes.POST("/:id/open", h.auth, h.OpenBox)
		boxes.POST("", h.admin, h.AddPool)
		boxes.PUT("/:id/items/:item/rarity", h.admin, h.UpdateItemRarity)
	}
}
