package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"calibration-backend/config"
	"calibration-backend/internal/mw"
	"calibration-backend/internal/notification"
	"calibration-backend/internal/store"
)

// NewRouter creates and configures a new Gin router. workers may be nil
// when push notifications are not configured.
func NewRouter(s store.Store, cfg *config.ServerConfig, webpushOptions *webpush.Options, workers *notification.WorkerPool) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, workers)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Cache for static metadata only; CRUD reads must stay fresh.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api/v1")
	api.Use(rateLimiter)
	{
		calibration := api.Group("/calibration")
		{
			calibration.GET("/session", handler.FindSessions)
			calibration.POST("/session", handler.CreateSession)
			calibration.GET("/session/:session_id", handler.GetSession)
			calibration.PATCH("/session/:session_id", handler.UpdateSession)
			calibration.DELETE("/session/:session_id", handler.DeleteSession)
			calibration.POST("/session/:session_id/step", handler.CreateStep)

			calibration.GET("/step/:step_id", handler.GetStep)
			calibration.PATCH("/step/:step_id", handler.UpdateStep)
			calibration.DELETE("/step/:step_id", handler.DeleteStep)
		}

		api.GET("/info", caching, handler.GetInfo)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
