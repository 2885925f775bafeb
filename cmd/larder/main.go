package main

import (
	"log"
	"log/slog"

	"github.com/vbonduro/larder/internal/categorize"
	claudecat "github.com/vbonduro/larder/internal/categorize/claude"
	"github.com/vbonduro/larder/internal/config"
	"github.com/vbonduro/larder/internal/db"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/logging"
	"github.com/vbonduro/larder/internal/service"
	"github.com/vbonduro/larder/internal/store"
	"github.com/vbonduro/larder/internal/tree"
	"github.com/vbonduro/larder/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	opts := service.DefaultOptions()
	opts.RecipeParams = tree.Params{MaxDepth: cfg.RecipeMaxDepth, MinSamplesSplit: cfg.RecipeMinSplit, Seed: cfg.ModelSeed}
	opts.ExpiryParams = tree.Params{MaxDepth: cfg.ExpiryMaxDepth, MinSamplesSplit: cfg.ExpiryMinSplit, Seed: cfg.ModelSeed}
	opts.TrainTimeout = cfg.TrainTimeout

	kitchen := service.NewKitchenService(
		store.NewRecipeStore(database),
		store.NewInventoryStore(database),
		store.NewObservationStore(database),
		store.NewWasteStore(database),
		newCategorizer(cfg, opts.Encoder, logger),
		opts,
		logging.Component(logger, "service"),
	)
	server := web.NewServer(kitchen, logging.Component(logger, "web"))

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

// newCategorizer always consults the built-in table first; Claude only sees
// names the table does not know.
func newCategorizer(cfg *config.Config, enc expiryml.Encoder, logger *slog.Logger) categorize.Categorizer {
	table := categorize.DefaultTable()
	if cfg.Categorizer != "claude" {
		logger.Info("using table categorizer")
		return table
	}
	if cfg.ClaudeAPIKey == "" {
		logger.Error("CLAUDE_API_KEY is required when CATEGORIZER=claude; falling back to table")
		return table
	}
	logger.Info("using Claude categorizer", "model", cfg.ClaudeModel)
	return categorize.Chain{table, claudecat.NewCategorizer(cfg.ClaudeAPIKey, cfg.ClaudeModel, enc.Categories.Names())}
}
