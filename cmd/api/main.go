package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inbox-platform/internal/auth"
	"inbox-platform/internal/channels"
	"inbox-platform/internal/config"
	"inbox-platform/internal/connections"
	"inbox-platform/internal/httpapi"
	"inbox-platform/internal/inbox"
	"inbox-platform/internal/otp"
	"inbox-platform/internal/user"
	"inbox-platform/pkg/logger"
	"inbox-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local convenience; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gateway := channels.NewMockGateway(log)

	codec, err := auth.NewCodec(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Entity repositories per STORE_BACKEND.
	var (
		users       user.Repository
		threads     inbox.Repository
		connRepo    connections.Repository
		seedThreads connections.ThreadStore
	)
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()

		users = user.NewPostgresRepo(db)
		pgThreads := inbox.NewPostgresRepo(db)
		threads = pgThreads
		seedThreads = pgThreads
		connRepo = connections.NewPostgresRepo(db)
	default:
		users = user.NewMemoryRepo()
		memThreads := inbox.NewMemoryRepo()
		threads = memThreads
		seedThreads = memThreads
		connRepo = connections.NewMemoryRepo(memThreads)
	}

	// OTP storage per OTP_BACKEND.
	var otps otp.Store
	if cfg.OTP.Backend == config.StoreRedis {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		otps = otp.NewRedisStore(rdb)
	} else {
		mem := otp.NewMemoryStore()
		mem.StartSweeper(rootCtx, cfg.OTP.SweepInterval, log)
		otps = mem
	}

	authSvc := auth.NewService(users, otps, gateway, codec, cfg.OTP.TTL)
	inboxSvc := inbox.NewService(threads, gateway)
	connSvc := connections.NewService(connRepo, seedThreads, gateway)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	httpapi.Register(r, httpapi.Handlers{
		Auth:        authSvc,
		Inbox:       inboxSvc,
		Connections: connSvc,
	}, auth.RequireUser(authSvc))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
