package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aarogya-ai/aarogya/pkg/config"
	"github.com/aarogya-ai/aarogya/pkg/configutil"
	"github.com/aarogya-ai/aarogya/pkg/conversation"
	"github.com/aarogya-ai/aarogya/pkg/gateway"
	"github.com/aarogya-ai/aarogya/pkg/lang"
	"github.com/aarogya-ai/aarogya/pkg/logging"
	deepgramprovider "github.com/aarogya-ai/aarogya/pkg/providers/deepgram"
	"github.com/aarogya-ai/aarogya/pkg/providers/gemini"
	"github.com/aarogya-ai/aarogya/pkg/runner"
	"github.com/aarogya-ai/aarogya/pkg/safety"
	"github.com/aarogya-ai/aarogya/pkg/session"
	"github.com/aarogya-ai/aarogya/pkg/transports/whatsapp"
)

type geminiSettings struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type deepgramSettings struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("aarogya_init",
		"environment", cfg.Environment,
		"llm_provider", cfg.Vendors.LLM.Provider,
		"stt_provider", cfg.Vendors.STT.Provider,
		"session_store", cfg.Session.Store,
		"transport", cfg.Transports.Provider,
	)

	store, err := session.NewStore(session.Config{
		Driver:  cfg.Session.Store,
		Timeout: cfg.SessionTimeout(),
		Redis: session.RedisConfig{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		},
	})
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer func() { _ = store.Close() }()

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		return err
	}

	orch := conversation.New(
		store,
		safety.New(cfg.Safety.ExitWords, cfg.Safety.EmergencyWords),
		lang.New(cfg.Languages.Supported, cfg.Languages.Default),
		gw,
		logger,
	)

	transport, err := buildTransport(cfg, orch, gw)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	lr := runner.NewLifecycleRunner(transport, runner.Hooks{
		OnStop: func() { slog.Info("aarogya_stopped") },
	}, 15*time.Second)
	return lr.Run(ctx)
}

func buildGateway(cfg config.Config, logger *slog.Logger) (*gateway.Gateway, error) {
	if cfg.Vendors.LLM.Provider != "gemini" {
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Vendors.LLM.Provider)
	}
	var gs geminiSettings
	if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &gs); err != nil {
		return nil, fmt.Errorf("llm settings: %w", err)
	}
	adapter := gemini.NewAdapter(gs.APIKey, gs.Model)
	if gs.BaseURL != "" {
		adapter.BaseURL = gs.BaseURL
	}
	if !adapter.Configured() {
		slog.Warn("gemini_api_key_missing", "hint", "all model calls will degrade to the fallback message")
	}

	gw := gateway.New(adapter, gateway.Config{
		MaxAttempts:      cfg.Gateway.MaxAttempts,
		Backoff:          cfg.Gateway.Backoff(),
		BreakerThreshold: cfg.Gateway.BreakerThreshold,
		BreakerCooldown:  cfg.Gateway.BreakerCooldown(),
	}, logger)

	if cfg.Vendors.STT.Provider == "deepgram" {
		var ds deepgramSettings
		if err := configutil.DecodeSettings(cfg.Vendors.STT.Settings, &ds); err != nil {
			return nil, fmt.Errorf("stt settings: %w", err)
		}
		if err := configutil.RequireString(ds.APIKey, "vendors.stt.settings.api_key"); err != nil {
			return nil, err
		}
		gw.SetTranscriber(deepgramprovider.New(ds.APIKey, ds.Model))
	}
	return gw, nil
}

func buildTransport(cfg config.Config, orch *conversation.Orchestrator, gw *gateway.Gateway) (*whatsapp.Transport, error) {
	if cfg.Transports.Provider != "twilio" {
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transports.Provider)
	}
	if err := configutil.ValidateSettings(cfg.Transports.Settings, configutil.Schema{
		Optional: []string{"server_addr", "public_url", "account_sid", "auth_token", "webhook_path"},
	}); err != nil {
		return nil, fmt.Errorf("transport settings: %w", err)
	}
	var tc whatsapp.Config
	if err := configutil.DecodeSettings(cfg.Transports.Settings, &tc); err != nil {
		return nil, fmt.Errorf("transport settings: %w", err)
	}
	if tc.AuthToken == "" {
		slog.Warn("twilio_auth_token_missing", "hint", "webhook signature validation and media download are disabled")
	}
	return whatsapp.New(tc, orch, gw), nil
}
