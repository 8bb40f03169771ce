package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	toolpanel "github.com/koscakluka/ema-toolpanel/core"
	"github.com/koscakluka/ema-toolpanel/core/config"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/koscakluka/ema-toolpanel/core/playback"
	"github.com/koscakluka/ema-toolpanel/core/realtime"
	"github.com/koscakluka/ema-toolpanel/core/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the tool panel and connect it to a realtime session",
	RunE:  runPanel,
}

func runPanel(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// The terminal belongs to the TUI.
	shutdownLogging, err := setupLogging(cfg.LogLevel, "toolpanel.log")
	if err != nil {
		return err
	}
	defer shutdownLogging(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, closeAudio, err := newMediaFactory(cfg.Audio)
	if err != nil {
		return err
	}
	defer closeAudio()

	clientOpts := []realtime.ClientOption{
		realtime.WithModel(cfg.Realtime.Model),
		realtime.WithAPIKey(cfg.Realtime.APIKey),
		realtime.WithHandshakeTimeout(cfg.Realtime.HandshakeTimeout),
	}
	if cfg.Realtime.TokenURL != "" {
		clientOpts = append(clientOpts, realtime.WithTokenURL(cfg.Realtime.TokenURL))
	}
	client := realtime.NewClient(cfg.Realtime.URL, clientOpts...)
	defer client.Close()

	updates := make(chan struct{}, 1)
	notify := func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	panel := toolpanel.NewPanel(panelOptions(cfg, client, factory, func(events.Event) { notify() })...)
	panel.Run(ctx)
	defer panel.Close()

	client.Subscribe(panel.Observe)
	logger.Info("Tool panel ready", "backend", cfg.Audio.Backend, "model", cfg.Realtime.Model)
	client.OnSessionActive(func(active bool) {
		panel.SetSessionActive(active)
		notify()
	})

	model := ui.NewModel(ctx, panel, client, updates)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tool panel: %w", err)
	}
	return nil
}

// session is the remote side the panel talks to.
type session interface {
	toolpanel.Channel
	toolpanel.Lifecycle
}

func panelOptions(cfg config.Config, client session, factory playback.MediaFactory, listener events.Listener) []toolpanel.PanelOption {
	opts := []toolpanel.PanelOption{
		toolpanel.WithChannel(client),
		toolpanel.WithCatalog(cfg.Catalog),
		toolpanel.WithMediaFactory(factory),
		toolpanel.WithContinuationDelay(cfg.Panel.ContinuationDelay),
		toolpanel.WithOutputFormat(toolpanel.OutputFormat(cfg.Panel.OutputFormat)),
		toolpanel.WithListener(listener),
	}
	if cfg.Panel.Delivery == config.DeliveryAtLeastOnce {
		opts = append(opts, toolpanel.WithAtLeastOnceDelivery())
	}
	if cfg.Panel.PassThrough {
		opts = append(opts, toolpanel.WithPassThrough())
	}
	if cfg.Panel.GatePlayback {
		opts = append(opts, toolpanel.WithPlaybackGating(client))
	}
	return opts
}
