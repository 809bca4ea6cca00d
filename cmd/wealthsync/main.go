// WealthSync terminal client.
//
// Usage:
//
//	export WEALTHSYNC_API="http://localhost:8000"
//	go run ./cmd/wealthsync
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/dashetica/wealthsync/pkg/analysis"
	"github.com/dashetica/wealthsync/pkg/api"
	"github.com/dashetica/wealthsync/pkg/config"
	"github.com/dashetica/wealthsync/pkg/profile"
	"github.com/dashetica/wealthsync/pkg/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	// Logging goes to a file; stdout belongs to the TUI.
	f, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	logLevel := slog.LevelInfo
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel})))
	slog.Info("Logging initialized", "level", logLevel)

	credPath := cfg.CredentialsPath
	if credPath == "" {
		credPath, err = session.DefaultStorePath()
		if err != nil {
			return err
		}
	}

	client := api.NewClient(cfg.BaseURL)
	sessions := session.NewManager(client, session.NewFileStore(credPath))
	profiles := profile.NewRepository(client)
	orch := analysis.NewOrchestrator(client)

	ctx := context.Background()

	p := tea.NewProgram(initialModel(ctx, client, sessions, profiles, orch), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
