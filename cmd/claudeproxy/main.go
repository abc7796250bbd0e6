// Command claudeproxy is a local HTTP proxy that lets Claude Code talk to
// any OpenAI-compatible (or native Anthropic) model provider: it translates
// between the Anthropic Messages API and the OpenAI Chat Completions API,
// or forwards requests untouched when the provider already speaks Anthropic.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/outpostai/claudeproxy/internal/config"
	"github.com/outpostai/claudeproxy/internal/forward"
	"github.com/outpostai/claudeproxy/internal/logging"
	"github.com/outpostai/claudeproxy/internal/server"
)

const version = "0.1.0"

func main() {
	var (
		configPath      string
		port            int
		provider        string
		logFile         string
		showConfigPaths bool
	)

	flag.StringVar(&configPath, "config", "", "path to config file (TOML)")
	flag.IntVar(&port, "port", 0, "port to listen on (overrides config)")
	flag.StringVar(&provider, "provider", "", "provider name (overrides config)")
	flag.StringVar(&logFile, "log-file", "claude-proxy.log", "log file path")
	flag.BoolVar(&showConfigPaths, "show-config-paths", false, "print config search paths and exit")
	flag.Parse()

	if showConfigPaths {
		printConfigSearchPaths()
		return
	}

	godotenv.Load()

	if err := run(configPath, port, provider, logFile); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func printConfigSearchPaths() {
	fmt.Println("Config search paths:")
	for i, p := range config.SearchPaths() {
		fmt.Printf("  %d. %s\n", i+1, p)
	}
}

func run(configPath string, portOverride int, providerOverride, logFilePath string) error {
	cfg, err := config.FindAndLoad(configPath)
	if err != nil {
		return err
	}

	if portOverride != 0 {
		cfg.Port = portOverride
	}
	if providerOverride != "" {
		cfg.Provider.Name = providerOverride
		if preset, ok := config.PresetByName(providerOverride); ok {
			if cfg.Provider.BaseURL == nil {
				cfg.Provider.BaseURL = &preset.BaseURL
			}
			cfg.Provider.APIKeyEnv = preset.DefaultAPIKeyEnv
		}
	}

	logger, err := logging.New(logFilePath)
	if err != nil {
		return err
	}
	defer logger.Close()

	baseURL, err := cfg.EffectiveBaseURL()
	if err != nil {
		return err
	}
	if _, err := cfg.ResolveAPIKey(); err != nil {
		return err
	}

	format := "openai (translate)"
	if cfg.IsAnthropicFormat() {
		format = "anthropic (passthrough)"
	}

	slog.Info("╔═══════════════════════════════════════════════════════╗")
	slog.Info(fmt.Sprintf("║           claudeproxy v%-32s║", version))
	slog.Info("╚═══════════════════════════════════════════════════════╝")
	slog.Info("startup", "provider", cfg.Provider.Name, "base_url", baseURL, "format", format, "port", cfg.Port, "models_mapped", len(cfg.Models), "log_file", logFilePath)

	logger.Info("startup", fmt.Sprintf("Starting claudeproxy provider=%s base_url=%s port=%d", cfg.Provider.Name, baseURL, cfg.Port))

	client := forward.NewClient(cfg, logger)
	app := &server.App{Config: cfg, Client: client, Logger: logger, Version: version}
	router := server.NewRouter(app)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	slog.Info(fmt.Sprintf("Listening on http://%s", addr))
	slog.Info(fmt.Sprintf("To use with Claude Code: ANTHROPIC_BASE_URL=http://localhost:%d claude", cfg.Port))

	return http.ListenAndServe(addr, router)
}
