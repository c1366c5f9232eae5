package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"aelon-backend/internal/bot"
	"aelon-backend/internal/common/config"
	"aelon-backend/internal/common/logger"
	"aelon-backend/internal/common/middleware"
	ledgerhttp "aelon-backend/internal/features/ledger/delivery/http"
	ledgerredis "aelon-backend/internal/features/ledger/repository/redis"
	"aelon-backend/internal/features/ledger/service"
	"aelon-backend/internal/platform/redis"
)

// @title           Aelon Rewards API
// @version         1.0
// @description     REST API for the Aelon reward mini-app: login streaks, farming cycles, referral milestones, airdrop actions and wallet linking.

// @host      localhost:8080
// @BasePath  /api

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init("aelon-backend", cfg.Debug)
	log.Info().Bool("debug", cfg.Debug).Msg("Starting Aelon rewards backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := redis.Open(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connection established")

	rules, err := service.NewRules(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build reward rules")
	}

	userRepo := ledgerredis.NewUserRepository(rdb.Client)
	ledger := service.New(userRepo, rules, nil)

	var tgBot *bot.Bot
	if cfg.Telegram.BotToken != "" {
		tgBot, err = bot.New(cfg.Telegram.BotToken, cfg.Telegram.WebAppURL, ledger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram bot")
		}
		ledger.SetNotifier(tgBot)
		go tgBot.Start()
		defer tgBot.Stop()
	} else {
		log.Warn().Msg("BOT_TOKEN not set, running without the Telegram bot")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.Server.Origin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Telegram-Init-Data"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api/user")
	if cfg.Telegram.InitDataAuth {
		api.Use(middleware.InitData(cfg.Telegram.BotToken, time.Duration(cfg.Telegram.InitDataTTL)*time.Second))
	}
	ledgerhttp.Register(api, ledger)

	router.GET("/health", func(c *gin.Context) {
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready", "error": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "aelon-backend",
		})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
