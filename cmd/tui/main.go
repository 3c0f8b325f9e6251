package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"mediahub/internal/client/api"
	"mediahub/internal/client/session"
	"mediahub/internal/config"
	"mediahub/internal/interaction"
	"mediahub/internal/media"
	"mediahub/internal/tui"
	"mediahub/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("MEDIAHUB_CONFIG"), "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// the terminal belongs to the UI, so logs go to a file next to the session
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr" {
		cfg.Logging.Output = filepath.Join(filepath.Dir(cfg.Session.Path), "tui.log")
	}
	logger.Init(cfg.Logging)

	feed, err := cfg.FeedKeys()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in config: %v\n", err)
		os.Exit(1)
	}

	store, err := session.OpenBolt(cfg.Session.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening session: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	client := api.NewClient(cfg.Server.BaseURL,
		api.WithTokenStore(store),
		api.WithLogger(logger.Component("api")),
		api.WithRequestTimeout(cfg.Client.RequestTimeout),
		api.WithRetry(cfg.Client.MaxAttempts, cfg.Client.BackoffInitial, cfg.Client.BackoffMax),
		api.WithRateLimit(cfg.Client.RequestsPerSecond, cfg.Client.Burst),
		api.WithTokenRefreshSkew(cfg.Client.TokenRefreshSkew),
	)

	svc := interaction.NewService(interaction.NewStore(), client,
		interaction.WithGuardWindow(cfg.Cache.GuardWindow),
		interaction.WithCommentPageSize(cfg.Cache.CommentPageSize),
		interaction.WithLogger(logger.Component("interaction")),
	)

	coord := media.NewCoordinator(media.WithCoordinatorLogger(logger.Component("media")))

	var username string
	if sess, err := store.Load(context.Background()); err == nil && sess.Token != "" {
		username = sess.Username
		if username == "" {
			username = "signed in"
		}
	}

	app := tui.New(tui.Options{
		Service:     svc,
		Coordinator: coord,
		Auth:        client,
		Sessions:    store,
		Feed:        feed,
		Username:    username,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
