package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/api/handler"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/api/router"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/database"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/logger"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/mail"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/redis"
)

// defaultBaseHourly 基础时薪默认值；正式环境由薪资系统侧提供
const defaultBaseHourly = 12.0

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("服务启动失败", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	// ── 基础设施 ──
	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := database.RunMigrations(sqlDB, log); err != nil {
		return err
	}

	rdb, err := redis.NewClient(&cfg.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// ── 业务装配 ──
	repo := repository.NewRepository(db)
	jwtMgr := jwt.NewManager(&cfg.Auth)
	sender := mail.NewSender(&cfg.Mail)
	rates := service.NewStandardRateCalculator(defaultBaseHourly)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, sender, rates, log)
	h := handler.NewHandler(svc, log)

	// ── 通知出箱定时投递 ──
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Workflow.OutboxFlushSpec, func() {
		svc.Notification.ProcessOutbox(context.Background())
	}); err != nil {
		return fmt.Errorf("注册出箱定时任务失败: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ── HTTP 服务 ──
	engine := router.New(cfg, h, jwtMgr, rdb, log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP 服务启动", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── 优雅退出 ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("收到退出信号", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务关闭失败: %w", err)
	}

	log.Info("服务已退出")
	return nil
}
