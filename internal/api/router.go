package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"smartbreath-backend/config"
	"smartbreath-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)
	requireToken := mw.RequireToken(h.authCfg.JWTSecret)

	r.Use(rateLimiter)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API server is running"})
	})
	r.GET("/vapid_public_key", h.GetVAPIDPublicKey)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/register", h.Register)
	}

	users := r.Group("/users")
	{
		// Public account creation; everything else is self-only.
		users.POST("", h.Register)
		users.GET("/:id", requireToken, h.GetUser)
		users.PUT("/:id", requireToken, h.UpdateUser)
		users.DELETE("/:id", requireToken, h.DeleteUser)
	}

	machines := r.Group("/machines", requireToken)
	{
		machines.POST("", h.CreateMachine)
		machines.GET("", h.ListMachines)

		// Specific paths before the id parameter routes.
		machines.DELETE("/reset/:id", h.ResetMachine)
		machines.POST("/register/:id", h.RegisterMachine)

		machines.GET("/:id", h.GetMachine)
		machines.PUT("/:id", h.UpdateMachine)
		machines.DELETE("/:id", h.DeleteMachine)
	}

	records := r.Group("/records", requireToken)
	{
		records.POST("", h.CreateRecord)
		records.GET("", h.ListRecords)
		records.GET("/:id", h.GetRecord)
		records.DELETE("/:id", h.DeleteRecord)
		records.GET("/:id/report", h.GetRecordReport)
	}

	subscriptions := r.Group("/subscriptions", requireToken)
	{
		subscriptions.GET("", h.GetSubscription)
		subscriptions.PUT("", h.PutSubscription)
		subscriptions.DELETE("", h.DeleteSubscription)
	}

	return r
}
