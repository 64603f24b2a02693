package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/vehiclesim/internal/api/handlers"
	"github.com/langchou/vehiclesim/internal/config"
	"github.com/langchou/vehiclesim/internal/metrics"
	"github.com/langchou/vehiclesim/internal/models"
	"github.com/langchou/vehiclesim/internal/mqtt"
	"github.com/langchou/vehiclesim/internal/notify"
	"github.com/langchou/vehiclesim/internal/repository"
	"github.com/langchou/vehiclesim/internal/simulator"
	"github.com/langchou/vehiclesim/pkg/ws"
)

// stateStore 引擎写入、接口读取的同一个存储
type stateStore interface {
	simulator.StateStore
	handlers.StateReader
}

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting vehicle simulator",
		zap.String("port", cfg.ServerPort),
		zap.String("vehicle_id", cfg.VehicleID),
		zap.Duration("tick_interval", cfg.TickInterval))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库，失败时退回内存存储继续运行
	store, closeStore := openStore(ctx, cfg.DatabaseURL, logger)
	defer closeStore()

	// 状态事件总线
	bus := notify.NewBus[models.StateEvent]()

	// Prometheus 指标
	var opts []simulator.Option
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder, err := metrics.New(reg)
		if err != nil {
			logger.Fatal("Failed to register metrics", zap.Error(err))
		}
		opts = append(opts, simulator.WithMetrics(recorder))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// 创建模拟引擎
	engine := simulator.New(
		simulator.Config{VehicleID: cfg.VehicleID, TickInterval: cfg.TickInterval},
		store,
		bus,
		logger,
		opts...,
	)

	// 创建 WebSocket Hub，新连接先收到当前状态
	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(func() interface{} {
		return engine.GetState()
	})
	go wsHub.Run()

	// 订阅状态更新并广播到 WebSocket
	go func() {
		for ev := range bus.Subscribe() {
			wsHub.BroadcastStateUpdate(ev.State)
		}
	}()

	// MQTT 转发（可选）
	var bridge *mqtt.Bridge
	if cfg.MQTTBroker != "" {
		bridge, err = mqtt.NewBridge(mqtt.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Retain:      true,
		}, logger)
		if err != nil {
			logger.Warn("MQTT disabled", zap.Error(err))
		} else {
			go bridge.Forward(bus.Subscribe())
		}
	}

	engine.Start(ctx)

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, engine, store, wsHub, metricsHandler)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止模拟，关闭订阅
	engine.Stop()
	bus.Close()
	if bridge != nil {
		bridge.Close()
	}
	wsHub.Close()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openStore 打开 PostgreSQL 存储，不可用时返回内存存储
func openStore(ctx context.Context, databaseURL string, logger *zap.Logger) (stateStore, func()) {
	if databaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory state store")
		return repository.NewMemoryStore(), func() {}
	}

	db, err := repository.New(ctx, databaseURL)
	if err != nil {
		logger.Warn("Failed to connect database, using in-memory state store", zap.Error(err))
		return repository.NewMemoryStore(), func() {}
	}

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Warn("Failed to migrate database, using in-memory state store", zap.Error(err))
		db.Close()
		return repository.NewMemoryStore(), func() {}
	}
	logger.Info("Database migrated successfully")

	return repository.NewVehicleStateRepository(db), db.Close
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
