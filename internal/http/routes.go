package http

import (
	"time"

	"pyramid_empire/internal/config"
	"pyramid_empire/internal/http/handlers"
	"pyramid_empire/internal/http/middleware"
	"pyramid_empire/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

// Router bundles what RegisterRoutes mounts.
type Router struct {
	Handler  *handlers.Handler
	Referral *handlers.ReferralHandler
	Health   *handlers.HealthHandler
	Hub      *ws.Hub
}

func RegisterRoutes(r *gin.Engine, rt Router, cfg *config.Config) {
	// Health checks (no rate limiting)
	r.GET("/health", rt.Health.Health)
	r.GET("/healthz", rt.Health.Liveness)
	r.GET("/readyz", rt.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.RedisRateLimit("api", cfg.APIRateLimit, cfg.APIRateWindow, middleware.ByIP))
	registerAPIRoutes(api, rt, cfg)

	r.GET("/ws", ws.HandleWS(rt.Hub, cfg.AllowedOrigin))
}

func registerAPIRoutes(api *gin.RouterGroup, rt Router, cfg *config.Config) {
	h := rt.Handler

	authRL := middleware.RedisRateLimit("auth", authRateLimit, authRateWindow, middleware.ByIP)
	api.POST("/auth/nonce", authRL, h.Nonce)
	api.POST("/auth/verify", authRL, h.Verify)

	api.GET("/me", middleware.JWT(), h.Me)

	// Taps are limited per user on top of the per IP api limit
	tapRL := middleware.RedisRateLimit("tap", cfg.TapRateLimit, cfg.TapRateWindow, middleware.ByUser)
	game := api.Group("/game")
	game.Use(middleware.JWT())
	{
		game.POST("/tap", tapRL, h.Tap)
		game.GET("/progress", h.Progress)
		game.POST("/claim", h.Claim)
		game.GET("/taps", h.TapHistory)
	}
	api.GET("/game/leaderboard", h.GetLeaderboard)

	api.GET("/shop/items", h.ShopItems)
	shop := api.Group("/shop")
	shop.Use(middleware.JWT())
	{
		shop.POST("/purchase", h.Purchase)
		shop.GET("/transactions", h.Transactions)
		shop.GET("/transactions/:hash", h.TransactionByHash)
	}

	quests := api.Group("/quests")
	quests.Use(middleware.JWT())
	{
		quests.GET("", h.GetQuests)
		quests.POST("/complete", h.CompleteQuest)
		quests.POST("/:id/complete", h.CompleteQuest)
	}

	referral := api.Group("/referral")
	referral.Use(middleware.JWT())
	{
		referral.GET("", rt.Referral.GetReferral)
		referral.GET("/link", rt.Referral.GetReferralLink)
		referral.GET("/list", rt.Referral.GetReferrals)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(), middleware.AdminOnly(cfg.AdminWallets))
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/audit", h.AdminAudit)
		admin.GET("/quests", h.AdminListQuests)
		admin.POST("/quests", h.AdminCreateQuest)
		admin.PUT("/quests/:id", h.AdminUpdateQuest)
		admin.DELETE("/quests/:id", h.AdminDeleteQuest)
		admin.POST("/users/:id/ban", h.AdminBan)
		admin.POST("/users/:id/unban", h.AdminUnban)
		admin.POST("/users/:id/boost", h.AdminBoost)
		admin.POST("/users/:id/quest-bonus", h.AdminQuestBonus)
		admin.POST("/users/:id/premium", h.AdminPremium)
	}
}
