package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/config"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/handlers"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/http/middleware"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
)

// SetupRouter собирает маршруты приложения.
// Все мутирующие публичные точки входа прикрыты rate limiter'ом.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	bookingHandler *handlers.BookingHandler,
	quoteHandler *handlers.QuoteHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	wsHandler *handlers.WSHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Публичная подача заявок: анонимно или от имени пользователя.
	bookings := api.Group("/bookings")
	bookings.Use(middleware.OptionalAuthMiddleware(tokenManager))
	bookings.POST("", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), bookingHandler.CreateBooking)

	bookingsAuth := api.Group("/bookings")
	bookingsAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		bookingsAuth.GET("/my", bookingHandler.ListMyBookings)
		bookingsAuth.POST("/:id/attachments", bookingHandler.UploadAttachment)
		bookingsAuth.GET("/:id/attachments", bookingHandler.ListAttachments)
	}

	quotes := api.Group("/quotes")
	{
		quotes.GET("/:id", middleware.OptionalAuthMiddleware(tokenManager), quoteHandler.GetQuote)
		quotes.POST("/:id/view", middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod), quoteHandler.RecordView)
	}

	quotesAuth := api.Group("/quotes")
	quotesAuth.Use(middleware.AuthMiddleware(tokenManager))
	quotesAuth.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		quotesAuth.POST("/:id/accept", quoteHandler.AcceptQuote)
		quotesAuth.POST("/:id/decline", quoteHandler.DeclineQuote)
		quotesAuth.GET("/:id/revisions", quoteHandler.GetRevisionHistory)
	}

	admin := api.Group("/admin")
	admin.GET("/ws", wsHandler.Connect)

	adminAuth := admin.Group("")
	adminAuth.Use(middleware.AuthMiddleware(tokenManager))
	adminAuth.Use(middleware.RequireAdmin())
	{
		adminAuth.GET("/quotes", adminHandler.ListQuotes)
		adminAuth.POST("/quotes/:id/issue", adminHandler.IssueQuote)
		adminAuth.PATCH("/quotes/:id/status", adminHandler.UpdateStatus)
		adminAuth.GET("/quotes/:id/events", adminHandler.GetEvents)
	}

	return r
}
