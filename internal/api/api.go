// internal/api/api.go
package api

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/storeadmin/internal/api/handlers"
	"github.com/andresuchdata/storeadmin/internal/api/middleware"
	"github.com/andresuchdata/storeadmin/internal/controller"
	"github.com/andresuchdata/storeadmin/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Sessions     *session.Store
	Orders       handlers.OrderReader
	Catalog      controller.ProductLister
	Calculations handlers.Calculator
	Weather      handlers.WeatherSource
	Templates    *template.Template
	Seed         int
	DefaultDays  int
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	if services.Templates != nil {
		router.SetHTMLTemplate(services.Templates)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	pages := handlers.NewPageHandler(services.Weather, services.DefaultDays)
	site := router.Group("/")
	site.Use(services.Sessions.Middleware())
	{
		site.GET("/", pages.Dashboard)
		site.POST("/orders/view", pages.ToggleView)
		site.GET("/orders/:id", pages.OrderDetail)
		site.GET("/orders/:id/edit", pages.EditOrder)
		site.GET("/orders/:id/delete", pages.ConfirmDeleteOrder)
		site.POST("/orders/:id/delete", pages.DeleteOrder)

		site.GET("/simulation", pages.Simulation)
		site.POST("/simulation", pages.RunSimulation)

		site.GET("/products", pages.Products)
		site.GET("/products/new", pages.NewProduct)
		site.GET("/products/:id/edit", pages.EditProduct)
		site.POST("/products/save", pages.SaveProduct)
		site.GET("/products/:id/delete", pages.ConfirmDeleteProduct)
		site.POST("/products/:id/delete", pages.DeleteProduct)

		site.GET("/order", pages.OrderEditor)
		site.POST("/order", pages.SubmitOrder)
	}

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}

	jsonAPI := handlers.NewAPIHandler(services.Orders, services.Catalog, services.Calculations, services.Weather, services.Seed)
	apiGroup := router.Group("/api/v1")
	apiGroup.Use(cors.New(corsConfig))
	{
		apiGroup.GET("/orders", jsonAPI.GetOrders)
		apiGroup.GET("/orders/:id/details", jsonAPI.GetOrderDetails)
		apiGroup.GET("/products", jsonAPI.GetProducts)
		apiGroup.GET("/uoms", jsonAPI.GetUOMs)
		apiGroup.POST("/simulation", jsonAPI.RunSimulation)
		apiGroup.POST("/spend", jsonAPI.InventorySpend)
		apiGroup.GET("/weather", jsonAPI.GetWeather)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
