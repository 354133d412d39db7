// Entry point for the filepipe service — file parsing over MCP stdio
// and/or HTTP, with an optional SQLite result cache.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/filepipe/filepipe/cache"
	"github.com/filepipe/filepipe/dbopen"
	"github.com/filepipe/filepipe/httpapi"
	"github.com/filepipe/filepipe/parse"
)

func main() {
	_ = godotenv.Load()

	port := env("PORT", "8090")
	mcpTransport := env("MCP_TRANSPORT", "stdio")
	cachePath := env("CACHE_DB", "")
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging. MCP stdio owns stdout, so logs go to stderr.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.CacheDB != "" && cachePath == "" {
		cachePath = cfg.CacheDB
	}
	if cfg.Port != "" && os.Getenv("PORT") == "" {
		port = cfg.Port
	}

	dispatcher, err := parse.New(parse.Config{
		Limits:      cfg.Limits,
		MaxFileSize: cfg.MaxFileSize,
		Timeout:     cfg.timeout(),
		Logger:      logger,
	})
	if err != nil {
		slog.Error("dispatcher", "error", err)
		os.Exit(1)
	}

	// Optional result cache.
	var store *cache.Store
	if cachePath != "" {
		db, err := dbopen.Open(cachePath, dbopen.WithMkdirAll(), dbopen.WithSchema(cache.Schema))
		if err != nil {
			slog.Error("cache db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = cache.New(db)
		slog.Info("cache enabled", "path", cachePath)
	}

	// Optional HTTP surface.
	httpEnabled := env("HTTP_ENABLED", "") == "true"
	var srv *http.Server
	if httpEnabled {
		api := httpapi.New(dispatcher, store, logger)
		srv = &http.Server{
			Addr:              ":" + port,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			slog.Info("http server starting", "port", port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http server", "error", err)
				os.Exit(1)
			}
		}()
	}

	// MCP stdio is the primary surface: it blocks until the client
	// disconnects or the signal context fires.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "filepipe",
			Version: "1.0.0",
		}, nil)
		dispatcher.RegisterMCP(mcpSrv)

		slog.Info("mcp stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("mcp stdio", "error", err)
		}
	} else {
		<-ctx.Done()
	}

	if srv != nil {
		slog.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}
	slog.Info("stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
