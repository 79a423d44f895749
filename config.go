package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/cpu"
)

const defaultAddr = ":8080"

type Config struct {
	TradierKey     string
	TradierBaseURL string
	Addr           string
	Workers        int
	LogLevel       slog.Level
}

// loadEnv reads .env into the process environment. A missing file is fine;
// variables already set win.
func loadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func loadConfig(getenv func(string) string) (Config, error) {
	cfg := Config{
		TradierKey:     getenv("TRADIER_KEY"),
		TradierBaseURL: getenv("TRADIER_BASE_URL"),
		Addr:           getenv("PRICINGLAB_ADDR"),
		LogLevel:       slog.LevelInfo,
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	if v := strings.TrimSpace(getenv("PRICINGLAB_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("PRICINGLAB_WORKERS must be a positive integer, got %q", v)
		}
		cfg.Workers = n
	} else {
		cfg.Workers = logicalCPUs()
	}

	if v := strings.TrimSpace(getenv("PRICINGLAB_LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("PRICINGLAB_LOG_LEVEL: %w", err)
		}
	}
	return cfg, nil
}

func logicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
