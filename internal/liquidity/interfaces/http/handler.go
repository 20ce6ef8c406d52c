// Package http exposes the liquidity inspection and control endpoints.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/exchangesim/internal/liquidity/application"
	mdapp "github.com/wyfcoding/exchangesim/internal/marketdata/application"
)

type LiquidityHandler struct {
	provider *application.Provider
	prices   *mdapp.PriceService
}

func NewLiquidityHandler(provider *application.Provider, prices *mdapp.PriceService) *LiquidityHandler {
	return &LiquidityHandler{provider: provider, prices: prices}
}

func (h *LiquidityHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/liquidity")
	{
		api.GET("/status", h.GetStatus)
		api.POST("/setup/:symbol", h.Setup)
		api.GET("/prices", h.GetPrices)
	}
}

// GetStatus reports active symbols, reference prices and cached profiles.
func (h *LiquidityHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.GetStatus())
}

// Setup manually seeds liquidity for a symbol.
func (h *LiquidityHandler) Setup(c *gin.Context) {
	symbol := c.Param("symbol")
	h.provider.Setup(c.Request.Context(), symbol)
	c.JSON(http.StatusOK, gin.H{
		"symbol": symbol,
		"active": h.provider.HasLiquidity(symbol),
	})
}

// GetPrices returns the non-expired reference-price cache.
func (h *LiquidityHandler) GetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prices": h.prices.Snapshot()})
}
