package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"GraphQueryAPI/internal/config"
	"GraphQueryAPI/internal/db"
	"GraphQueryAPI/internal/logger"
	"GraphQueryAPI/internal/registry"
	"GraphQueryAPI/internal/resolver"
	"GraphQueryAPI/internal/router"
	"GraphQueryAPI/internal/source"
	"GraphQueryAPI/internal/source/sqlsource"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init("."); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	logger.SetDebug(*debugFlag)

	ctx := context.Background()

	// PostgreSQL

	if err := db.InitPostgres(ctx, cfg.PostgresDSN); err != nil {
		logger.Error("postgres_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("postgres_connected", nil)

	// Redis опционален: без него реестр типов собирается напрямую из YAML.
	if cfg.DescriptorCache {
		db.InitRedis(cfg.RedisAddr)
		if err := db.PingRedis(); err != nil {
			logger.Warn("redis_unavailable", map[string]any{"error": err.Error()})
			db.RDB = nil
		} else {
			logger.Info("redis_connected", nil)
		}
	}

	// Initialize type registry
	if err := registry.InitRegistry(ctx, cfg.TypesDir); err != nil {
		logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("types_initialized", map[string]any{"count": len(registry.Registry)})

	// Wire the resolver to SQL-backed sources
	resolver.Sources = func(desc *registry.TypeDescriptor) source.Source {
		return sqlsource.New(db.Pool, desc)
	}
	resolver.MaxPageSize = cfg.MaxPageSize

	// Initialize routes
	if err := router.InitRoutes(cfg); err != nil {
		logger.Error("router_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	// Start HTTP server
	logger.Info("server_start", map[string]any{"port": cfg.Port})
	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, nil); err != nil {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
