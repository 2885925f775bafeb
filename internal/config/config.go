package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr   string
	DBPath       string
	Categorizer  string
	ClaudeAPIKey string
	ClaudeModel  string
	LogLevel     string
	LogFile      string

	RecipeMaxDepth int
	RecipeMinSplit int
	ExpiryMaxDepth int
	ExpiryMinSplit int
	ModelSeed      int64
	TrainTimeout   time.Duration
}

// Load reads the environment. Numeric and duration variables that are set
// but unparseable are reported rather than silently replaced by defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		DBPath:       getEnv("DB_PATH", "/data/larder.db"),
		Categorizer:  getEnv("CATEGORIZER", "table"),
		ClaudeAPIKey: getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:  getEnv("CLAUDE_MODEL", "claude-3-5-haiku-latest"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}

	var err error
	if cfg.RecipeMaxDepth, err = getInt("RECIPE_MAX_DEPTH", 10); err != nil {
		return nil, err
	}
	if cfg.RecipeMinSplit, err = getInt("RECIPE_MIN_SPLIT", 2); err != nil {
		return nil, err
	}
	if cfg.ExpiryMaxDepth, err = getInt("EXPIRY_MAX_DEPTH", 5); err != nil {
		return nil, err
	}
	if cfg.ExpiryMinSplit, err = getInt("EXPIRY_MIN_SPLIT", 3); err != nil {
		return nil, err
	}
	seed, err := getInt("MODEL_SEED", 42)
	if err != nil {
		return nil, err
	}
	cfg.ModelSeed = int64(seed)

	timeout := getEnv("TRAIN_TIMEOUT", "10s")
	if cfg.TrainTimeout, err = time.ParseDuration(timeout); err != nil {
		return nil, fmt.Errorf("invalid TRAIN_TIMEOUT %q: %w", timeout, err)
	}

	switch cfg.Categorizer {
	case "table", "claude":
	default:
		return nil, fmt.Errorf("invalid CATEGORIZER %q: want table or claude", cfg.Categorizer)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val, exists := os.LookupEnv(key)
	if !exists || val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, val, err)
	}
	return n, nil
}
