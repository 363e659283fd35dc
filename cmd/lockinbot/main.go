package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/PHILLJAY/lockInBot/internal/bus"
	"github.com/PHILLJAY/lockInBot/internal/channels"
	"github.com/PHILLJAY/lockInBot/internal/config"
	"github.com/PHILLJAY/lockInBot/internal/convo"
	"github.com/PHILLJAY/lockInBot/internal/extract"
	"github.com/PHILLJAY/lockInBot/internal/providers"
	"github.com/PHILLJAY/lockInBot/internal/reminder"
	"github.com/PHILLJAY/lockInBot/internal/schedule"
	"github.com/PHILLJAY/lockInBot/internal/session"
	"github.com/PHILLJAY/lockInBot/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lockinbot",
	Short: "Conversational recurring-reminder bot",
	Long: `lockinbot turns free-form chat like "remind me to work out 3 times a week
in the morning" into a validated recurring reminder schedule, clarifying
missing details turn by turn before anything is committed.`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.lockinbot/config.json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persist, err := store.NewSQLite(cfg.Store.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer persist.Close()

	msgBus := bus.NewMessageBus(0)
	sessions := session.NewStore(time.Duration(cfg.Conversation.WindowMinutes) * time.Minute)
	restored, err := convo.RestoreSessions(ctx, persist, sessions)
	if err != nil {
		return fmt.Errorf("failed to restore sessions: %w", err)
	}
	if restored > 0 {
		slog.Info("conversations restored", "sessions", restored)
	}
	go sessions.RunSweeper(ctx, time.Duration(cfg.Conversation.SweepSeconds)*time.Second)

	gen := buildGenerative(cfg)
	generator := schedule.NewGenerator(time.Duration(cfg.Schedule.CollisionWindowMinutes) * time.Minute)

	reminders := reminder.NewService(msgBus, persist)
	if err := reminders.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore reminders: %w", err)
	}
	reminders.Start()
	defer reminders.Stop()

	engine := convo.NewEngine(convo.EngineConfig{
		Sessions:     sessions,
		Persist:      persist,
		Generative:   gen,
		Generator:    generator,
		Reminders:    reminders,
		Bus:          msgBus,
		HistoryLimit: cfg.Conversation.HistoryLimit,
	})

	manager := channels.NewManager(msgBus)
	if err := addConfiguredChannels(manager, cfg); err != nil {
		return err
	}

	go msgBus.DispatchOutbound(ctx)
	go func() {
		if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("engine stopped", "error", err)
		}
	}()

	if err := manager.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start channels: %w", err)
	}
	slog.Info("lockinbot running", "channels", channels.RegisteredNames())

	<-ctx.Done()
	slog.Info("shutting down")
	return manager.StopAll()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("no config file found, using defaults with env overrides")
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// buildGenerative wires the generative extractor against whichever provider
// the extraction model belongs to. With no usable key the bot still runs,
// rule-based only.
func buildGenerative(cfg *config.Config) *extract.Generative {
	opts := providers.Options{Model: cfg.Extraction.Model}
	lower := strings.ToLower(cfg.Extraction.Model)
	switch {
	case strings.Contains(lower, "claude") || strings.Contains(lower, "anthropic"):
		opts.APIKey = cfg.Providers.Anthropic.APIKey
		opts.BaseURL = cfg.Providers.Anthropic.BaseURL
	case cfg.Providers.Custom.APIKey != "":
		opts.APIKey = cfg.Providers.Custom.APIKey
		opts.BaseURL = cfg.Providers.Custom.BaseURL
	default:
		opts.APIKey = cfg.Providers.OpenAI.APIKey
		opts.BaseURL = cfg.Providers.OpenAI.BaseURL
	}

	p, err := providers.New(opts)
	if err != nil {
		slog.Warn("generative extraction disabled", "error", err)
		return nil
	}
	return extract.NewGenerative(p, cfg.Extraction.Model, time.Duration(cfg.Extraction.TimeoutSeconds)*time.Second)
}

func addConfiguredChannels(manager *channels.Manager, cfg *config.Config) error {
	add := func(name string, channelCfg any) error {
		raw, err := json.Marshal(channelCfg)
		if err != nil {
			return fmt.Errorf("failed to encode %s config: %w", name, err)
		}
		return manager.AddChannel(name, raw)
	}

	if cfg.Channels.Discord.Token != "" {
		if err := add("discord", cfg.Channels.Discord); err != nil {
			return err
		}
	}
	if cfg.Channels.Telegram.Token != "" {
		if err := add("telegram", cfg.Channels.Telegram); err != nil {
			return err
		}
	}
	if cfg.Channels.Slack.BotToken != "" {
		if err := add("slack", cfg.Channels.Slack); err != nil {
			return err
		}
	}
	return nil
}
