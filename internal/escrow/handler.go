package escrow

import (
	"net/http"
	"strconv"

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

func (h *Handler) SetWithdrawAddress(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	if err := h.service.SetWithdrawAddress(c.Request.Context(), req.Address); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": req.Address})
}

func (h *Handler) GetWithdrawAddress(c *gin.Context) {
	address, err := h.service.WithdrawAddress(c.Request.Context())
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address})
}

func (h *Handler) WithdrawFund(c *gin.Context) {
	var req struct {
		Asset   string          `json:"asset" binding:"required"`
		Amount  decimal.Decimal `json:"amount"`
		ItemIDs []int64         `json:"item_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !common.IsHexAddress(req.Asset) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset address"})
		return
	}
	if err := h.service.WithdrawFund(c.Request.Context(), req.Asset, req.Amount, req.ItemIDs); err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": req.Asset})
}

func (h *Handler) GetCollected(c *gin.Context) {
	asset := c.Param("asset")
	if !common.IsHexAddress(asset) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset address"})
		return
	}
	collected, err := h.service.Collected(c.Request.Context(), asset)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset": asset, "collected": collected})
}

func (h *Handler) GetEntries(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.service.Entries(c.Request.Context(), poolID, limit, offset)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool_id": poolID, "entries": entries})
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	escrows := router.Group("/escrow", h.admin)
	{
		escrows.GET("/withdraw-address", h.GetWithdrawAddress)
		escrows.PUT("/withdraw-address", h.SetWithdrawAddress)
		escrows.POST("/withdraw", h.WithdrawFund)
		escrows.GET("/collected/:asset", h.GetCollected)
		escrows.GET("/pools/:id/entries", h.GetEntries)
	}
}
