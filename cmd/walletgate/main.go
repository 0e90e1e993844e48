package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/adapters/events"
	"github.com/DCMX-Protocol/walletgate/adapters/identity"
	"github.com/DCMX-Protocol/walletgate/adapters/store"
	"github.com/DCMX-Protocol/walletgate/adapters/tokenizer"
	"github.com/DCMX-Protocol/walletgate/adapters/wallet"
	"github.com/DCMX-Protocol/walletgate/internal/config"
	"github.com/DCMX-Protocol/walletgate/internal/observability"
	"github.com/DCMX-Protocol/walletgate/ports"
	"github.com/DCMX-Protocol/walletgate/service"
	transport "github.com/DCMX-Protocol/walletgate/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		challenges ports.ChallengeStore
		revoked    ports.RevocationList
		publisher  message.Publisher
	)

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("failed to parse Redis URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Fatal("failed to create Redis publisher", zap.Error(err))
		}

		challenges = store.NewRedisChallengeStore(redisClient)
		revoked = store.NewRedisRevocationList(redisClient)
		logger.Info("using Redis-backed stores", zap.String("url", cfg.Redis.URL))
	} else {
		challenges = store.NewMemoryChallengeStore()
		revoked = store.NewMemoryRevocationList()
		publisher = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
		logger.Info("using in-memory stores (single instance)")
	}

	registry := service.NewNonceRegistry(challenges, cfg.Auth.ChallengeTTL)
	go registry.StartSweeper(ctx, cfg.Auth.SweepInterval, logger)

	tokens := service.NewTokenService(
		tokenizer.NewJWTTokenizer([]byte(cfg.Auth.TokenSecret)),
		cfg.Auth.SessionTTL,
		cfg.Auth.RefreshHorizon,
	)

	backend := identity.NewHTTPBackend(cfg.Identity.BaseURL, &http.Client{
		Timeout: cfg.Auth.BackendTimeout + time.Second,
	})

	authService := service.NewAuthService(
		registry,
		tokens,
		wallet.NewPersonalSignVerifier(),
		backend,
		revoked,
		events.NewWatermillPublisher(publisher),
		logger,
		cfg.Auth.BackendTimeout,
	)

	router := transport.SetupRouter(authService, logger, observability.NewMetrics())

	srv := &http.Server{
		Addr:    cfg.App.Addr(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.App.Addr()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server failed", zap.Error(err))
	}
}
