// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the report-engine CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/report-engine/internal/checkpoint"
	"github.com/pdiddy/report-engine/internal/llm"
	"github.com/pdiddy/report-engine/internal/search"
	"github.com/pdiddy/report-engine/internal/secrets"
	"github.com/pdiddy/report-engine/internal/workflow"
	"github.com/pdiddy/report-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Set by the root command before any subcommand runs.
var (
	loadedSecrets secrets.Secrets
	logger        = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "report-engine",
	Short: "Plan, research, and write multi-section reports",
	Long: `report-engine writes marketing and comparison reports. It plans the
report's sections, waits for a reviewer to approve or revise the plan, then
researches sections in parallel with web search, writes the sections that
need no research from the gathered content, and compiles the report.

Workflows are checkpointed, so "start" and "feedback" can run as separate
processes. "serve" exposes the same operations over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./report-engine.yaml or ~/.config/report-engine/report-engine.yaml)")
	pf.String("checkpoint-driver", "", "checkpoint store: memory, sqlite, postgres, or redis")
	pf.String("checkpoint-dsn", "", "checkpoint database path, connection string, or redis address")
	pf.String("backend", "", "search backend: tavily or perplexity")
	pf.String("log-level", "", "log level: debug, info, warn, or error")

	_ = viper.BindPFlag("checkpoint.driver", pf.Lookup("checkpoint-driver"))
	_ = viper.BindPFlag("checkpoint.dsn", pf.Lookup("checkpoint-dsn"))
	_ = viper.BindPFlag("workflow.search_backend", pf.Lookup("backend"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("report-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "report-engine"))
		}
	}

	configureEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configureEnv maps REPORT_ENGINE_* variables onto config keys.
func configureEnv() {
	viper.SetEnvPrefix("REPORT_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()
}

// setDefaults registers every default setting with viper so environment
// variables can override keys that no config file mentions.
func setDefaults() {
	def := cliDefaults()
	data, err := yaml.Marshal(def)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := prefix + k
			if sub, ok := v.(map[string]any); ok {
				walk(key+".", sub)
				continue
			}
			viper.SetDefault(key, v)
		}
	}
	walk("", tree)
}

// cliDefaults is types.DefaultConfig with a durable checkpoint store, so
// separate CLI invocations share workflows.
func cliDefaults() types.Config {
	cfg := types.DefaultConfig()
	cfg.Checkpoint.Driver = types.CheckpointSQLite
	cfg.Checkpoint.DSN = filepath.Join(".report-engine", "checkpoints.db")
	return cfg
}

// loadConfig decodes viper settings over the defaults and fills API keys
// from .secrets/ and the environment.
func loadConfig() (types.Config, error) {
	cfg := cliDefaults()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: decoding config: %v", types.ErrConfiguration, err)
	}
	cfg.Search.TavilyAPIKey = loadedSecrets.Get(secrets.TavilyKey, cfg.Search.TavilyAPIKey)
	cfg.Search.PerplexityAPIKey = loadedSecrets.Get(secrets.PerplexityKey, cfg.Search.PerplexityAPIKey)
	cfg.Planner.APIKey = modelKey(cfg.Planner)
	cfg.Writer.APIKey = modelKey(cfg.Writer)
	return cfg, nil
}

func modelKey(m types.ModelConfig) string {
	switch m.Provider {
	case types.ProviderOpenAI:
		return loadedSecrets.Get(secrets.OpenAIKey, m.APIKey)
	case types.ProviderAnthropic:
		return loadedSecrets.Get(secrets.AnthropicKey, m.APIKey)
	}
	return m.APIKey
}

func newLogger(cfg types.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: log level: %v", types.ErrConfiguration, err)
		}
		zc.Level = level
	}
	return zc.Build()
}

// app bundles the engine with the store it was built on.
type app struct {
	cfg    types.Config
	engine *workflow.Engine
	store  checkpoint.Store
}

func (a *app) Close() error { return a.store.Close() }

// openStore opens the configured checkpoint store.
func openStore(ctx context.Context) (types.Config, checkpoint.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	store, err := checkpoint.Open(ctx, cfg.Checkpoint, logger)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, store, nil
}

// newApp wires models, search, and the checkpoint store into an engine.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	planner, err := llm.New(cfg.Planner, logger.Named("planner"))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	writer, err := llm.New(cfg.Writer, logger.Named("writer"))
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	research, err := search.New(cfg.Workflow.SearchBackend, cfg.Search, logger.Named("search"))
	if err != nil {
		return nil, err
	}
	store, err := checkpoint.Open(ctx, cfg.Checkpoint, logger.Named("checkpoint"))
	if err != nil {
		return nil, err
	}

	engine, err := workflow.New(cfg, workflow.Deps{
		Planner: planner,
		Writer:  writer,
		Search:  research,
		Store:   store,
		Logger:  logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{cfg: cfg, engine: engine, store: store}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
