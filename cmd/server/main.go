package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koopa0/system-design/14-card-duel/internal"
)

func main() {
	// 解析命令行參數
	var (
		configPath = flag.String("config", "", "YAML 配置檔案路徑（可選）")
		logLevel   = flag.String("log-level", "", "日誌級別 (debug, info, warn, error)，覆蓋配置")
		logFormat  = flag.String("log-format", "", "日誌格式 (text, json)，覆蓋配置")
	)
	flag.Parse()

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		slog.Error("載入配置失敗", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	// 設置日誌
	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)

	// 牌組設定錯誤在啟動時就失敗
	decks, err := internal.NewDeckFactory(cfg.Game.Cards, cfg.Game.WinningCard, nil)
	if err != nil {
		logger.Error("牌組配置無效", "error", err)
		os.Exit(1)
	}

	manager := internal.NewManager(decks, cfg.Game.StarterHand, logger)
	registry := internal.NewRegistry()
	dispatcher := internal.NewDispatcher(manager, registry, cfg.Server.MaxMessageSize, logger)

	wsHub := internal.NewWebSocketHub(dispatcher, registry, internal.HubOptions{
		MaxMessageSize:  cfg.Server.MaxMessageSize,
		SendBuffer:      cfg.Server.SendBuffer,
		ReadBufferSize:  cfg.Server.ReadBufferSize,
		WriteBufferSize: cfg.Server.WriteBufferSize,
	}, logger)

	monitor := internal.NewMonitor(registry, cfg.Liveness.Interval, dispatcher.Evict, logger)
	monitor.Start()

	handler := internal.NewHandler(manager, registry, logger)

	// 設置路由
	mux := http.NewServeMux()
	mux.Handle("/", handler.Routes())
	mux.HandleFunc(cfg.Server.WSPath, wsHub.ServeWS)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("卡牌對戰服務器啟動",
			"port", cfg.Server.Port,
			"ws_path", cfg.Server.WSPath,
			"liveness_interval", cfg.Liveness.Interval,
			"log_level", cfg.Log.Level)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("服務器啟動失敗", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		logger.Info("收到關閉信號，開始優雅關閉...", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// 停止接受新連接（已升級的 WebSocket 不受 Shutdown 管理）
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("服務器關閉失敗", "error", err)
		}

		monitor.Stop()
		wsHub.Stop()
		manager.Stop()
	}

	logger.Info("服務器已關閉")
}

// setupLogger 設置日誌
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
