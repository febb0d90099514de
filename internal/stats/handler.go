package stats

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rada-network/launchpad/internal/engine"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetPoolStats(c *gin.Context) {
	poolID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pool id"})
		return
	}
	stats, err := h.service.PoolStats(c.Request.Context(), poolID)
	if err != nil {
		c.JSON(engine.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/pools/:id/stats", h.GetPoolStats)
}
