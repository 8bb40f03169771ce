package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/koscakluka/ema-toolpanel/core/config"
	"github.com/koscakluka/ema-toolpanel/core/tools"
	"github.com/spf13/cobra"
)

var showTools bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the configured song catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		var out any = cfg.Catalog.Songs()
		if showTools {
			registry, err := tools.NewRegistry(tools.SongRecommendation())
			if err != nil {
				return err
			}
			out = registry.SessionUpdate()
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("failed to print catalog: %w", err)
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolVar(&showTools, "tools", false, "print the session.update event registering the tools instead")
}
