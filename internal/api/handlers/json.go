package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/andresuchdata/storeadmin/internal/weather"
	"github.com/gin-gonic/gin"
)

type OrderReader interface {
	ListOrders(ctx context.Context, recent bool) ([]domain.OrderSummary, error)
	GetOrderDetails(ctx context.Context, id int64) ([]domain.OrderDetailLine, error)
}

type Calculator interface {
	RevenueSimulation(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error)
	InventorySpend(ctx context.Context, req domain.SpendRequest) (*domain.SpendResult, error)
}

// APIHandler serves the read-only JSON surface and the calculators.
type APIHandler struct {
	orders  OrderReader
	catalog controller.ProductLister
	calc    Calculator
	weather WeatherSource
	seed    int
}

func NewAPIHandler(orders OrderReader, catalog controller.ProductLister, calc Calculator, weather WeatherSource, seed int) *APIHandler {
	return &APIHandler{
		orders:  orders,
		catalog: catalog,
		calc:    calc,
		weather: weather,
		seed:    seed,
	}
}

// GetOrders lists recent orders, or every order with view=all, filtered by q.
func (h *APIHandler) GetOrders(c *gin.Context) {
	view := controller.ParseViewMode(c.DefaultQuery("view", "recent"))
	orders, err := h.orders.ListOrders(c.Request.Context(), view == controller.ViewRecent)
	if err != nil {
		errorResponse(c, err)
		return
	}

	rows := controller.FilterOrders(orders, c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"view":   view.String(),
		"orders": rows,
		"total":  len(orders),
	})
}

func (h *APIHandler) GetOrderDetails(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		errorResponse(c, err)
		return
	}

	lines, err := h.orders.GetOrderDetails(c.Request.Context(), id)
	if err == nil && len(lines) == 0 {
		err = domain.ErrNotFound
	}
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "items": lines})
}

func (h *APIHandler) GetProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": controller.FilterProducts(products, c.Query("q")),
		"total":    len(products),
	})
}

func (h *APIHandler) GetUOMs(c *gin.Context) {
	uoms, err := h.catalog.ListUOMs(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uoms": uoms})
}

type simulationBody struct {
	ProductIDs []int64 `json:"product_ids"`
	Days       int     `json:"days"`
	Seed       *int    `json:"seed"`
}

// RunSimulation runs the revenue simulation; a missing seed uses the
// configured one.
func (h *APIHandler) RunSimulation(c *gin.Context) {
	var body simulationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := domain.SimulationRequest{ProductIDs: body.ProductIDs, Days: body.Days, Seed: h.seed}
	if body.Seed != nil {
		req.Seed = *body.Seed
	}

	result, err := h.calc.RevenueSimulation(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) InventorySpend(c *gin.Context) {
	var req domain.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.calc.InventorySpend(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetWeather returns the widget reading. The API key never leaves the server.
func (h *APIHandler) GetWeather(c *gin.Context) {
	if h.weather == nil || !h.weather.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": weather.Unavailable})
		return
	}

	w, err := h.weather.Current(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, weather.ErrDisabled) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": weather.Unavailable})
		return
	}
	c.JSON(http.StatusOK, w)
}
