package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"campusconnect/internal/core/auth"
	"campusconnect/internal/core/cache"
	"campusconnect/internal/core/config"
	"campusconnect/internal/core/database"
	"campusconnect/internal/core/logger"
	"campusconnect/internal/core/server"
	"campusconnect/internal/realtime"
	"campusconnect/internal/repo"
	"campusconnect/internal/service"
	"campusconnect/internal/transport/http/handler"
	"campusconnect/internal/transport/http/router"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.IsProd(),
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File != "",
			Filename:   cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
	})
	defer cleanup()
	undo := logger.RedirectStdLog(log, zapcore.InfoLevel)
	defer undo()
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := repo.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis 可选：开启后用于统计缓存和多实例推送
	var rc *cache.Cache
	if cfg.Redis.Enable {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer func() { _ = rc.Close() }()
		if err := rc.Ping(ctx); err != nil {
			log.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	// 依赖
	jwter := auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL())
	users := repo.NewUserRepo(db)
	posts := repo.NewPostRepo(db)
	comments := repo.NewCommentRepo(db)

	hub := realtime.NewHub(log)
	var pusher service.Pusher = hub
	if rc != nil {
		broker := realtime.NewBroker(rc.RDB, cfg.Realtime.ChannelPrefix, hub, log)
		if err := broker.Run(ctx); err != nil {
			log.Fatal("notification subscriber", zap.Error(err))
		}
		pusher = broker
	}

	authSvc := service.NewAuthService(users, jwter, log)
	notes := service.NewNotificationService(repo.NewNotificationRepo(db), pusher, log)
	stats := service.NewStatsCache(rc, time.Duration(cfg.Cache.StatsTTLSec)*time.Second, log)

	ws := realtime.NewHandler(hub, func(token string) (string, error) {
		u, err := authSvc.Authenticate(context.Background(), token)
		if err != nil {
			return "", err
		}
		return u.ID, nil
	}, realtime.Options{
		PingPeriod:  time.Duration(cfg.Realtime.PingSec) * time.Second,
		ReadLimit:   int64(cfg.Realtime.ReadLimitKB) << 10,
		SendBuffer:  cfg.Realtime.SendBuffer,
		RequireAuth: cfg.Realtime.RequireAuth,
	}, cfg.Realtime.AllowOrigins)

	mode := gin.DebugMode
	if cfg.IsProd() {
		mode = gin.ReleaseMode
	}
	r := router.NewAPIEngine(router.Deps{
		Log:           log,
		Authn:         authSvc,
		Auth:          handler.NewAuthHandler(authSvc),
		Posts:         handler.NewPostHandler(service.NewPostService(posts, notes, stats, log)),
		Comments:      handler.NewCommentHandler(service.NewCommentService(comments, posts, notes, stats, log)),
		Notifications: handler.NewNotificationHandler(notes),
		Admin:         handler.NewAdminHandler(service.NewAdminService(users, posts, comments, stats, log)),
		WS:            ws,
		Ready:         readiness(db, rc),
		Online:        hub.Online,
	}, router.Options{
		Server: server.Options{Mode: mode, AllowOrigins: cfg.App.CORS.AllowOrigins},
		Limits: router.Limits{
			RPS:           cfg.Limits.RPS,
			Burst:         cfg.Limits.Burst,
			GlobalRPS:     cfg.Limits.GlobalRPS,
			GlobalBurst:   cfg.Limits.GlobalBurst,
			MaxConcurrent: cfg.Limits.MaxConcurrent,
			MaxBodyBytes:  cfg.Limits.MaxBodyMB << 20,
			Timeout:       time.Duration(cfg.Limits.TimeoutSec) * time.Second,
		},
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)
	if el, err := logger.ToStdLogger(log, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = el
	}

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("campus api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
		zap.String("ws", "ws://"+host4human+":"+fmt.Sprint(cfg.App.HTTP.Port)+"/ws"),
		zap.Bool("redis", rc != nil),
	)

	// 异步启动
	errCh := make(chan error, 1)
	go func() { errCh <- server.StartHTTP(srv, log) }()

	// 优雅关闭：先断 websocket，再等在途请求
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("campus api start FAILED", zap.Error(err))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hub.Shutdown(shutdownCtx); err != nil {
		log.Warn("websocket shutdown", zap.Error(err))
	}
	if err := server.Shutdown(srv, 10*time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("campus api stopped gracefully")
}

func readiness(db *gorm.DB, rc *cache.Cache) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if rc != nil {
			if err := rc.Ping(ctx); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		SlowThresholdMs:    cfg.DB.SlowThresholdMs,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
