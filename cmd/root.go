package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/joescharf/ideas/internal/cache"
	"github.com/joescharf/ideas/internal/events"
	"github.com/joescharf/ideas/internal/lifecycle"
	"github.com/joescharf/ideas/internal/llm"
	"github.com/joescharf/ideas/internal/output"
	"github.com/joescharf/ideas/internal/pitch"
	"github.com/joescharf/ideas/internal/store"
	"github.com/joescharf/ideas/internal/versions"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	logger    *zap.Logger
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Idea lifecycle engine - generate, triage and deep-dive startup ideas",
	Long: `ideas turns project descriptions into startup pitches and tracks them
through a review workflow. Moving an idea to deep_dive generates a structured
investor-style analysis in the background and keeps every version of it.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	closeApp()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/ideas/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "ideas")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("IDEAS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	setDefaults(filepath.Join(home, ".config", "ideas"))

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(stateDir string) {
	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db_path", filepath.Join(stateDir, "ideas.db"))
	viper.SetDefault("log.level", "warn")

	viper.SetDefault("llm.provider", "anthropic")
	viper.SetDefault("llm.profile", "")
	viper.SetDefault("llm.max_attempts", llm.DefaultMaxAttempts)
	viper.SetDefault("llm.retry_delay", llm.DefaultRetryDelay)
	viper.SetDefault("llm.request_timeout", llm.DefaultRequestTimeout)
	viper.SetDefault("llm.rate_limit_delay", llm.DefaultRateLimitDelay)
	viper.SetDefault("llm.max_rate_limit_wait", llm.DefaultMaxRateLimitWait)
	viper.SetDefault("llm.ascii_threshold", llm.DefaultASCIIThreshold)
	viper.SetDefault("llm.max_tokens", 4096)

	viper.SetDefault("anthropic.api_keys", []string{})
	viper.SetDefault("anthropic.model", llm.DefaultAnthropicModel)
	viper.SetDefault("gemini.api_keys", []string{})
	viper.SetDefault("gemini.model", llm.DefaultGeminiModel)

	viper.SetDefault("lifecycle.workers", lifecycle.DefaultWorkers)
	viper.SetDefault("lifecycle.task_timeout", lifecycle.DefaultTaskTimeout)

	viper.SetDefault("pitch.max_attempts", pitch.DefaultMaxAttempts)
	viper.SetDefault("pitch.retry_delay", pitch.DefaultRetryDelay)

	viper.SetDefault("events.nats_url", "")
	viper.SetDefault("cache.nats_bucket", "ideas-cache")
	viper.SetDefault("cache.ttl", cache.DefaultTTL)

	viper.SetDefault("port", 8080)
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	l, err := newLogger(viper.GetString("log.level"), verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger = l

	// Store and engine are opened lazily, only by commands that need them.
	// This allows config/version commands to run without a db.
}

// newLogger builds the process logger. Human-facing output goes through ui;
// zap carries operational logs on stderr.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !os.IsExist(err) {
			logger.Debug("could not create database directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(commandContext()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// app bundles the workflow services a command needs.
type app struct {
	store    store.Store
	bus      events.Bus
	remote   events.Bus
	cache    cache.Cache
	gen      llm.Generator
	versions *versions.Service
	engine   *lifecycle.Engine
	pitches  *pitch.Generator
}

var current *app

// getApp wires the store, event bus, cache, generation client and engine.
// With shared set the engine consumes events from NATS when configured, so
// several processes cooperate; otherwise events are dispatched in process and
// the command can wait for the deep dives it starts.
func getApp(shared bool) (*app, error) {
	if current != nil {
		return current, nil
	}
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	ctx := commandContext()

	remote := events.Connect(viper.GetString("events.nats_url"), logger)
	var nc *nats.Conn
	if nb, ok := remote.(*events.NATSBus); ok {
		nc = nb.Conn()
	}
	bus := remote
	if !shared {
		bus = events.NewMemoryBus(logger)
	}
	c := cache.New(ctx, nc, viper.GetString("cache.nats_bucket"), viper.GetDuration("cache.ttl"), logger)

	gen, err := newGenerator()
	if err != nil {
		_ = remote.Close()
		return nil, err
	}

	profile := viper.GetString("llm.profile")
	model := generationModel()
	vs := versions.New(s, logger)
	engine, err := lifecycle.New(lifecycle.Config{
		Workers:     viper.GetInt64("lifecycle.workers"),
		TaskTimeout: viper.GetDuration("lifecycle.task_timeout"),
		Model:       model,
		Profile:     profile,
	}, lifecycle.Deps{
		Store:     s,
		Bus:       bus,
		Generator: gen,
		Versions:  vs,
		Cache:     c,
		Logger:    logger,
	})
	if err != nil {
		_ = remote.Close()
		return nil, err
	}

	current = &app{
		store:    s,
		bus:      bus,
		remote:   remote,
		cache:    c,
		gen:      gen,
		versions: vs,
		engine:   engine,
		pitches: pitch.NewGenerator(s, gen, c, pitch.Config{
			MaxAttempts: viper.GetInt("pitch.max_attempts"),
			RetryDelay:  viper.GetDuration("pitch.retry_delay"),
			Model:       model,
			Profile:     profile,
		}, logger),
	}
	return current, nil
}

// closeApp waits for background work and releases connections.
func closeApp() {
	if current != nil {
		_ = current.engine.Close()
		if current.bus != current.remote {
			_ = current.bus.Close()
		}
		_ = current.remote.Close()
		current = nil
	}
	if dataStore != nil {
		_ = dataStore.Close()
		dataStore = nil
	}
}

func commandContext() context.Context {
	if ctx := rootCmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
