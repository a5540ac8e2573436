package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/tdvu/keyhound/internal/core/config"
	"github.com/tdvu/keyhound/internal/keystore"
	"github.com/tdvu/keyhound/internal/recovery"
	"github.com/tdvu/keyhound/internal/telemetry"
)

var (
	cfgPath     string
	isDebug     bool
	workersFlag int
)

var rootCmd = &cobra.Command{
	Use:   "keyhound",
	Short: "Keystore password recovery tool",
	Long:  `Keyhound brute-forces the password of an Ethereum-style keystore file using a constrained candidate grammar: a word-list base, 1-5 digits, and one special character.`,
	Run:   runRecovery,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().IntVar(&workersFlag, "workers", 0, "override worker count from config")
}

func runRecovery(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		initLogger(config.LoggingConfig{})
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	initLogger(cfg.Logging)

	if cfg.Keystore.Path == "" {
		slog.Error("No keystore path configured")
		os.Exit(1)
	}

	ks, err := keystore.Load(cfg.Keystore.Path)
	if err != nil {
		slog.Error("Failed to load keystore", "path", cfg.Keystore.Path, "error", err)
		os.Exit(1)
	}
	slog.Info("Keystore loaded", "address", ks.Address, "kdf", ks.Params())

	workers := cfg.Search.Workers
	if workersFlag > 0 {
		workers = workersFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Optional telemetry endpoint
	var telemetryServer *telemetry.Server
	if cfg.Telemetry.Port > 0 {
		telemetryServer = telemetry.NewServer(cfg.Telemetry.Port)
		go func() {
			if err := telemetryServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Telemetry server failed", "error", err)
			}
		}()
		slog.Info("Telemetry endpoint started", "port", cfg.Telemetry.Port)
	}

	engine := recovery.NewEngine(ks, cfg.Grammar.ToGrammar(), slog.Default(), cfg.Search.ProgressInterval)

	result, err := engine.Recover(ctx, cfg.Passwords, workers)
	if err != nil {
		slog.Error("Recovery failed", "error", err)
		os.Exit(1)
	}

	if telemetryServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = telemetryServer.Stop(shutdownCtx)
	}

	if !result.Found {
		fmt.Printf("No password found after %d attempts (%s)\n", result.Attempts, result.Elapsed.Round(time.Millisecond))
		os.Exit(1)
	}

	fmt.Printf("Password found: %s\n", result.Password)
	fmt.Printf("Attempts: %d of %d (%s)\n", result.Attempts, result.SpaceSize, result.Elapsed.Round(time.Millisecond))

	if cfg.Search.OutputFile != "" {
		if err := os.WriteFile(cfg.Search.OutputFile, []byte(result.Password+"\n"), 0o600); err != nil {
			slog.Error("Failed to write output file", "path", cfg.Search.OutputFile, "error", err)
			os.Exit(1)
		}
		slog.Info("Password written", "path", cfg.Search.OutputFile)
	}
}

// initLogger installs the default slog handler: tint for text output,
// the stock JSON handler otherwise.
func initLogger(cfg config.LoggingConfig) {
	level := slog.LevelInfo
	if isDebug || cfg.Level == "debug" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	}
	slog.SetDefault(slog.New(handler))
}
