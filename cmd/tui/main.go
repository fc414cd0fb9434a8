package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nmoreau/penny/cmd/tui/internal/view"
	"github.com/nmoreau/penny/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client := view.NewClient(cfg.API.URL, cfg.API.Token)

	p := tea.NewProgram(view.NewChatModel(client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
