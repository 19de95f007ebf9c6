package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pyramid_empire/internal/cache"
	"pyramid_empire/internal/chain"
	"pyramid_empire/internal/config"
	"pyramid_empire/internal/db"
	httpServer "pyramid_empire/internal/http"
	"pyramid_empire/internal/http/handlers"
	"pyramid_empire/internal/http/middleware"
	"pyramid_empire/internal/jobs"
	"pyramid_empire/internal/logger"
	"pyramid_empire/internal/partner"
	"pyramid_empire/internal/repository"
	"pyramid_empire/internal/service"
	"pyramid_empire/internal/ws"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	ctx := context.Background()
	dbPool := db.Connect(ctx, cfg.DatabaseURL)
	defer dbPool.Close()

	// Redis is optional: nonces and rate limits fall back to process memory
	var nonces cache.Store
	redisClient := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient != nil {
		defer redisClient.Close()
		middleware.UseRedis(redisClient)
		nonces = cache.NewRedisStore(redisClient, "nonce:")
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		mem, err := cache.NewMemoryStore(100_000)
		if err != nil {
			logger.Fatal("failed to create nonce store", "error", err)
		}
		nonces = mem
		logger.Warn("redis not available, using in-memory nonces and rate limits")
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	progressRepo := repository.NewProgressRepository(dbPool, userRepo)
	tapRepo := repository.NewTapEventRepository(dbPool)
	referralRepo := repository.NewReferralRepository(dbPool)
	txRepo := repository.NewTransactionRepository(dbPool)
	questRepo := repository.NewQuestRepository(dbPool)
	auditRepo := repository.NewAuditRepository(dbPool)
	statsRepo := repository.NewStatsRepository(userRepo, tapRepo, txRepo)

	healthHandler := handlers.NewHealthHandler(dbPool, version)
	if redisClient != nil {
		healthHandler.WithCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	var verifier service.PaymentVerifier
	if cfg.ShopEnabled() {
		source, err := chain.Dial(ctx, cfg.ChainRPCURL, cfg.ChainRPCTimeout)
		if err != nil {
			logger.Fatal("failed to connect to chain rpc", "error", err)
		}
		defer source.Close()
		verifier = chain.NewVerifier(source, chain.VerifierConfig{
			Token:            common.HexToAddress(cfg.USDCContract),
			ShopWallet:       common.HexToAddress(cfg.ShopWallet),
			MinConfirmations: cfg.MinConfirmations,
		})
		healthHandler.WithCheck("chain_rpc", func(ctx context.Context) error {
			_, err := source.BlockNumber(ctx)
			return err
		})
	}

	var partnerVerifier service.PartnerVerifier
	if cfg.PartnerAPIURL != "" {
		partnerVerifier = partner.NewClient(cfg.PartnerAPIURL, cfg.PartnerAPIKey, cfg.PartnerTimeout)
	} else {
		logger.Warn("partner api not configured, partner quests cannot be completed")
	}

	hub := ws.NewHub()

	// Services
	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, nonces, cfg.NonceTTL, auditService)
	gameService := service.NewGameService(userRepo, progressRepo, tapRepo, referralRepo, txRepo, auditService, hub)
	shopService := service.NewShopService(userRepo, progressRepo, referralRepo, txRepo, verifier, auditService, hub)
	questService := service.NewQuestService(questRepo, userRepo, progressRepo, referralRepo, txRepo,
		partnerVerifier, cfg.PartnerQuestIDs, auditService)
	referralService := service.NewReferralService(userRepo, referralRepo, cfg.PublicURL)
	adminService := service.NewAdminService(questRepo, userRepo, progressRepo, referralRepo, gameService, statsRepo, auditService)

	sched, err := jobs.Start(txRepo, cfg.PendingTxTTL, time.Minute)
	if err != nil {
		logger.Fatal("failed to start scheduler", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(cfg.AllowedOrigin))

	httpServer.RegisterRoutes(r, httpServer.Router{
		Handler: &handlers.Handler{
			Users:        userRepo,
			Taps:         tapRepo,
			Audit:        auditRepo,
			AuthService:  authService,
			GameService:  gameService,
			ShopService:  shopService,
			QuestService: questService,
			AdminService: adminService,
		},
		Referral: handlers.NewReferralHandler(referralService, referralRepo),
		Health:   healthHandler,
		Hub:      hub,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version, "shop_enabled", cfg.ShopEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Shutdown(); err != nil {
		logger.Error("scheduler shutdown", "error", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
