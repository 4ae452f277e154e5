package main

import (
	"context"
	"time"

	"github.com/earnings-navigator/backend/internal/config"
	"github.com/earnings-navigator/backend/internal/db"
	"github.com/earnings-navigator/backend/internal/logger"
	"github.com/earnings-navigator/backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}
	logger.Init(cfg.Server.Env)
	defer logger.Sync()

	logger.Info("🚀 Bootstrapping schema...")

	gdb, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database: %v", err)
	}

	s := store.New(gdb, store.WithPrePing(cfg.DB.PrePing))
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.Init(ctx); err != nil {
		logger.Fatal("schema bootstrap failed: %v", err)
	}

	counts, err := store.TableCounts(ctx, s)
	if err != nil {
		logger.Fatal("failed to count rows: %v", err)
	}
	for _, tc := range counts {
		logger.Info("✅ %-18s %d rows", tc.Table, tc.Rows)
	}

	logger.Info("✅ Schema bootstrap completed successfully.")
}
