// Package http exposes the order-entry and inspection endpoints.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/exchangesim/internal/exchange/application"
)

type ExchangeHandler struct {
	service *application.ExchangeService
	logger  *slog.Logger
}

func NewExchangeHandler(service *application.ExchangeService, logger *slog.Logger) *ExchangeHandler {
	return &ExchangeHandler{service: service, logger: logger}
}

func (h *ExchangeHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1")
	{
		api.POST("/orders", h.SubmitOrder)
		api.POST("/orders/cancel", h.CancelOrder)
		api.POST("/orders/amend", h.AmendOrder)
		api.GET("/orders/:order_id/executions", h.GetOrderExecutions)
		api.GET("/orderbook", h.GetOrderBook)
		api.GET("/symbols", h.GetSymbols)
		api.GET("/executions", h.GetExecutions)
	}
}

// SubmitOrder handles the new-order message.
func (h *ExchangeHandler) SubmitOrder(c *gin.Context) {
	var cmd application.SubmitOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reports, err := h.service.SubmitOrder(c.Request.Context(), &cmd)
	if err != nil {
		// Submit only fails on malformed input; well-formed operation
		// failures surface as REJECTED executions instead.
		h.logger.Warn("order rejected at validation", "client_order_id", cmd.ClientOrderID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"executions": reports})
}

// CancelOrder handles the cancel-request message.
func (h *ExchangeHandler) CancelOrder(c *gin.Context) {
	var cmd application.CancelOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reports := h.service.CancelOrder(c.Request.Context(), &cmd)
	c.JSON(http.StatusOK, gin.H{"executions": reports})
}

// AmendOrder handles the amend-request message.
func (h *ExchangeHandler) AmendOrder(c *gin.Context) {
	var cmd application.AmendOrderCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reports, err := h.service.AmendOrder(c.Request.Context(), &cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"executions": reports})
}

// GetOrderBook returns an aggregated depth snapshot for a symbol.
func (h *ExchangeHandler) GetOrderBook(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol parameter is required"})
		return
	}

	depth, err := strconv.Atoi(c.DefaultQuery("depth", "20"))
	if err != nil || depth <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid depth parameter"})
		return
	}

	snapshot := h.service.GetOrderBook(symbol, depth)
	if snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no order book for symbol"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetSymbols lists every symbol with an order book.
func (h *ExchangeHandler) GetSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": h.service.Symbols()})
}

// GetExecutions returns recent executions for a symbol.
func (h *ExchangeHandler) GetExecutions(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol parameter is required"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	reports, err := h.service.GetExecutions(c.Request.Context(), symbol, limit)
	if err != nil {
		h.logger.Error("failed to list executions", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"executions": reports})
}

// GetOrderExecutions returns the execution history of one exchange order.
func (h *ExchangeHandler) GetOrderExecutions(c *gin.Context) {
	orderID := c.Param("order_id")

	reports, err := h.service.GetExecutionsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to list order executions", "order_id", orderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"executions": reports})
}
