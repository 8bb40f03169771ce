package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	toolpanel "github.com/koscakluka/ema-toolpanel/core"
	"github.com/koscakluka/ema-toolpanel/core/config"
	"github.com/koscakluka/ema-toolpanel/core/events"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <file>",
	Short: "Play a local WAV file through the panel without a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		shutdownLogging, err := setupLogging(cfg.LogLevel, "")
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

		done := make(chan events.Event, 1)
		panel := toolpanel.NewPanel(
			toolpanel.WithCatalog(cfg.Catalog),
			toolpanel.WithMediaFactory(factory),
			toolpanel.WithListener(func(event events.Event) {
				switch event.Kind() {
				case events.KindPlaybackEnded, events.KindPlaybackFailed:
					select {
					case done <- event:
					default:
					}
				}
			}),
		)
		panel.Run(ctx)
		defer panel.Close()

		if err := panel.PlayLocalFile(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to play %s: %w", args[0], err)
		}
		logger.Info("Playing local file", "file", args[0])

		select {
		case event := <-done:
			if event.Kind() == events.KindPlaybackFailed {
				return fmt.Errorf("playback of %s failed", args[0])
			}
		case <-ctx.Done():
		}
		return nil
	},
}
