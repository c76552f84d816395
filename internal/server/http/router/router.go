package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/realtime"
	"github.com/polkiloo/fooddispatch/internal/server/http/handlers"
	"github.com/polkiloo/fooddispatch/internal/server/http/middleware"
)

// WebSocketPath is where the realtime gateway accepts upgrades.
const WebSocketPath = "/ws"

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.DispatchFacade, gateway *realtime.Gateway, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(middleware.CompressResponse(WebSocketPath))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	partnerHandler := handlers.NewPartnerHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET(WebSocketPath, gateway.Handle)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))
	authed.GET("/auth/me", authHandler.Me)

	managerOnly := middleware.RequireRole(model.RoleManager)
	deliveryOnly := middleware.RequireRole(model.RoleDelivery)

	orders := authed.Group("/orders")
	orders.POST("", managerOnly, orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/my", deliveryOnly, orderHandler.Mine)
	orders.GET("/:orderId", orderHandler.Get)
	orders.PUT("/:orderId/assign", managerOnly, orderHandler.Assign)
	orders.PUT("/:orderId/status", orderHandler.UpdateStatus)

	partners := authed.Group("/partners")
	partners.GET("", managerOnly, partnerHandler.List)
	partners.GET("/me", deliveryOnly, partnerHandler.Me)
	partners.PUT("/availability", deliveryOnly, partnerHandler.ToggleAvailability)
	partners.PUT("/location", deliveryOnly, partnerHandler.UpdateLocation)

	return engine
}
