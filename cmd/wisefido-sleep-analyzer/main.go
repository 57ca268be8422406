package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"wisefido-sleep-analyzer/internal/config"
	"wisefido-sleep-analyzer/internal/database"
	"wisefido-sleep-analyzer/internal/engine"
	"wisefido-sleep-analyzer/internal/httpapi"
	"wisefido-sleep-analyzer/internal/logger"
	"wisefido-sleep-analyzer/internal/mqtt"
	"wisefido-sleep-analyzer/internal/redisutil"
	"wisefido-sleep-analyzer/internal/repository"
	"wisefido-sleep-analyzer/internal/service"
	"wisefido-sleep-analyzer/internal/sleepmetrics"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-sleep-analyzer")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting wisefido-sleep-analyzer",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("readings_source", cfg.Readings.Source),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	// 3. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 4. 连接 Redis
	redisClient := redisutil.NewRedisClient(&cfg.Redis)
	defer redisClient.Close()
	if err := redisutil.Ping(context.Background(), redisClient); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	// 5. 创建仓库与读数来源
	readingsRepo := repository.NewSensorReadingsRepository(db, log)
	analysisRepo := repository.NewSleepAnalysisRepository(db, log)

	var readingsSource repository.ReadingsSource = readingsRepo
	if cfg.Readings.Source == "rest" {
		readingsSource = repository.NewRestReadingsSource(cfg.Readings.RestBaseURL, cfg.Readings.RestAPIKey, log)
	}

	// 6. 创建分析引擎
	eng := engine.New(buildEngineParams(cfg), log)

	// 7. 创建服务与 HTTP 处理器
	analysisService := service.NewAnalysisService(eng, readingsSource, analysisRepo, redisClient, log)

	mux := http.NewServeMux()
	handler := httpapi.NewAnalysisHandler(analysisService, log)
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	// 8. 可选：MQTT 样本接入
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.NewClient(cfg.MQTT, log)
		if err != nil {
			log.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		ingester := mqtt.NewIngester(mqttClient, readingsRepo, log)
		if err := ingester.Start(cfg.MQTT.Topic); err != nil {
			log.Fatal("Failed to subscribe sample topic", zap.Error(err))
		}
	}

	// 9. 启动 HTTP 服务
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 10. 等待退出信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// 11. 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if mqttClient != nil {
		mqttClient.Close()
	}

	log.Info("Service stopped")
}

// buildEngineParams 将配置映射为引擎参数
func buildEngineParams(cfg *config.Config) engine.Params {
	params := engine.DefaultParams()

	params.PPG.SamplingRateHz = cfg.Engine.PPGSamplingRateHz

	params.Threshold.ActivityPercentile = cfg.Engine.ActivityPercentile
	params.Threshold.HRPercentile = cfg.Engine.HRPercentile
	params.Threshold.ApplyHRGate = cfg.Engine.ApplyHRGate
	params.Threshold.WakeTolerance = cfg.Engine.WakeTolerance
	params.Threshold.MinBlockEpochs = cfg.Engine.MinBlockEpochs
	if cfg.Engine.BlockPolicy == "span" {
		params.Threshold.BlockPolicy = sleepmetrics.TieBreakSpan
	}

	params.Havok.Stackmax = cfg.Engine.Stackmax
	params.Havok.SVDRank = cfg.Engine.SVDRank
	params.Havok.MinPeriodMinutes = float64(cfg.Engine.UltradianMinPeriod)
	params.Havok.MaxPeriodMinutes = float64(cfg.Engine.UltradianMaxPeriod)
	params.Havok.TransitionPercentile = cfg.Engine.TransitionPercentile
	params.Havok.EpochDuration = time.Duration(cfg.Engine.EpochSeconds) * time.Second

	return params
}
