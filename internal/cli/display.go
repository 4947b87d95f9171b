package cli

import (
	"fmt"
	"weaponcam/internal/display"
	"weaponcam/internal/service"

	"github.com/spf13/cobra"
)

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Show the annotated camera feed in a desktop window; ESC quits",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := service.NewManager(cfg, log, nil, nil)

		session, err := manager.OpenSession(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not start detection: %w", err)
		}
		defer session.Close()

		window := display.NewWindow(cfg.WindowTitle)
		defer window.Close()

		return display.Run(cmd.Context(), session.Pipeline(), window, manager.Metrics(), log)
	},
}

func init() {
	rootCmd.AddCommand(displayCmd)
}
