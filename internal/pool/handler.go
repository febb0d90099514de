package pool

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
	admin   gin.HandlerFunc
}

func NewHandler(service Service, admin gin.HandlerFunc) *Handler {
	return &Handler{service: service, admin: admin}
}

type upsertRequest struct {
	PoolID                 int64           `json:"pool_id" binding:"required"`
	Kind                   Kind            `json:"kind" binding:"required"`
	Title                  string          `json:"title"`
	ItemAsset              string          `json:"item_asset" binding:"required"`
	IsSaleToken            bool            `json:"is_sale_token"`
	PaymentAsset           string          `json:"payment_asset" binding:"required"`
	StartTime              int64           `json:"start_time" binding:"required"`
	EndTime                int64           `json:"end_time" binding:"required"`
	StartPrice             decimal.Decimal `json:"start_price"`
	RequireWhitelist       bool            `json:"require_whitelist"`
	WhitelistIDs           []int64         `json:"whitelist_ids"`
	WhitelistOverrideAfter int64           `json:"whitelist_override_after"`
	MaxBuyPerAddress       int64           `json:"max_buy_per_address"`
	MaxBuyPerOrder         int64           `json:"max_buy_per_order"`
	TotalItems             int64           `json:"total_items"`
}

func (h *Handler) AddOrUpdatePool(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !common.IsHexAddress(req.ItemAsset) || !common.IsHexAddress(req.PaymentAsset) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset address"})
		return
	}
	if req.Kind != KindAuction && req.Kind != KindFixedSwap {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown pool kind"})
		return
	}
	cfg := Config{
		PoolID:                 req.PoolID,
		Kind:                   req.Kind,
		Title:                  req.Title,
		ItemAsset:              req.ItemAsset,
		IsSaleToken:            req.IsSaleToken,
		PaymentAsset:           req.PaymentAsset,
		StartTime:              time.Unix(req.StartTime, 0),
		EndTime:                time.Unix(req.EndTime, 0),
		StartPrice:             req.StartPrice,
		RequireWhitelist:       req.RequireWhitelist,
		WhitelistIDs:           req.WhitelistIDs,
		WhitelistOverrideAfter: req.WhitelistOverrideAfter,
		MaxBuyPerAddress:       req.MaxBuyPerAddress,
		MaxBuyPerOrder:         req.MaxBuyPerOrder,
		TotalItems:             req.TotalItems,
	}
	if err := h.service.AddOrUpdatePool(c.Request.Context(), cfg); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": req.PoolID})
}

func (h *Handler) HandlePublicPool(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		IsPublic *bool `json:"is_public" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.HandlePublicPool(c.Request.Context(), poolID, *req.IsPublic); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "is_public": *req.IsPublic})
}

func (h *Handler) UpdateSalePool(c *gin.Context) {
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
	if err := h.service.UpdateSalePool(c.Request.Context(), poolID, req.ItemIDs); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "items": len(req.ItemIDs)})
}

func (h *Handler) SetWhitelist(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	var req struct {
		Addresses []string `json:"addresses" binding:"required"`
		Allowed   *bool    `json:"allowed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetWhitelist(c.Request.Context(), poolID, req.Addresses, *req.Allowed); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID})
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

func (h *Handler) GetPoolIDs(c *gin.Context) {
	ids, err := h.service.GetPoolIDs(c.Request.Context())
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_ids": ids})
}

func (h *Handler) GetWhitelistIDs(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	ids, err := h.service.GetWhitelistIDs(c.Request.Context(), poolID)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "whitelist_ids": ids})
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	pools := router.Group("/pools")
	{
		pools.GET("", h.GetPoolIDs)
		pools.GET("/:id", h.GetPool)
		pools.GET("/:id/whitelist-ids", h.GetWhitelistIDs)
		pools.POST("", h.admin, h.AddOrUpdatePool)
		pools.PUT("/:id/public", h.admin, h.HandlePublicPool)
		pools.PUT("/:id/items", h.admin, h.UpdateSalePool)
		pools.PUT("/:id/whitelist", h.admin, h.SetWhitelist)
	}
}
