package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskmem/internal/config"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/providers/local"
	"github.com/sandevgo/tuskmem/internal/providers/supermemory"
	"github.com/sandevgo/tuskmem/internal/service/command"
	"github.com/sandevgo/tuskmem/internal/service/memory"
	"github.com/sandevgo/tuskmem/internal/storage/sqlite"
	"github.com/sandevgo/tuskmem/internal/transport/mcp"
	"github.com/sandevgo/tuskmem/internal/transport/telegram"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/srv"
)

// NewServices wires the long-running process. stop ends the process when a
// transport exits on its own.
func NewServices(ctx context.Context, stop func()) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)

	// 2. Backend and assembler
	assembler, cleanups, err := initAssembler(ctx, appCfg, memCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize context assembler")
	}
	services = append(services, cleanups...)

	// 3. Transports
	transports, err := initTransports(ctx, appCfg, memCfg, assembler, stop)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	if len(transports) == 0 {
		logger.Fatal().Msg("no transport enabled, set TUSK_ENABLE_MCP or TUSK_ENABLE_TELEGRAM")
	}
	services = append(services, transports...)

	return services
}

// initAssembler builds the configured backend and the assembler on top of it.
// The returned services release them on shutdown, assembler first.
func initAssembler(ctx context.Context, appCfg core.AppConfig, memCfg *config.MemoryConfig) (*memory.Assembler, []srv.Service, error) {
	backend, closeBackend, err := initBackend(ctx, appCfg, memCfg)
	if err != nil {
		return nil, nil, err
	}

	var cleanups []srv.Service
	if closeBackend != nil {
		cleanups = append(cleanups, srv.NewCleanup(closeBackend))
	}

	assembler, err := memory.NewAssembler(ctx, memory.OptionsFromConfig(memCfg), backend)
	if err != nil {
		if closeBackend != nil {
			_ = closeBackend()
		}
		return nil, nil, err
	}
	cleanups = append(cleanups, srv.NewCleanupFunc(assembler.Close))

	return assembler, cleanups, nil
}

func initBackend(ctx context.Context, appCfg core.AppConfig, memCfg *config.MemoryConfig) (core.MemoryBackend, func() error, error) {
	logger := log.FromCtx(ctx)

	switch memCfg.GetBackend() {
	case config.BackendSupermemory:
		logger.Debug().Str("base_url", memCfg.GetBaseURL()).Msg("using supermemory backend")
		return supermemory.NewFromConfig(memCfg), nil, nil
	case config.BackendLocal:
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		logger.Debug().Str("path", appCfg.GetDatabasePath()).Msg("using local backend")
		return local.NewBackend(sqlite.NewMemoryRepo(db)), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown memory backend %q", memCfg.GetBackend())
	}
}

func initTransports(
	ctx context.Context,
	appCfg core.AppConfig,
	memCfg *config.MemoryConfig,
	assembler *memory.Assembler,
	stop func(),
) ([]srv.Service, error) {
	var services []srv.Service

	// MCP over stdio
	if appCfg.IsMCPSelected() {
		server := mcp.NewServer(assembler, memCfg.GetMaxTokens())
		services = append(services, srv.StopOnExit(server, stop))
	}

	// Telegram Bot
	if appCfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		router := command.New(command.NewCommands(assembler, memCfg.GetMaxTokens()))
		bot, err := telegram.NewBot(ctx, tgCfg, assembler, router, memCfg.GetMaxTokens())
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	return services, nil
}

// initEnv loads the runtime .env file when there is one. Variables already
// set in the environment win.
func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}

// withAssembler runs fn against a short-lived assembler for one-shot commands.
func withAssembler(ctx context.Context, fn func(*memory.Assembler, *config.MemoryConfig) error) error {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return fmt.Errorf("failed to init env: %w", err)
	}

	appCfg := config.NewAppConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)

	assembler, cleanups, err := initAssembler(ctx, appCfg, memCfg)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i].Shutdown(ctx); err != nil {
				log.FromCtx(ctx).Error().Err(err).Msg("cleanup failed")
			}
		}
	}()

	return fn(assembler, memCfg)
}
