package cli

import (
	"weaponcam/internal/app"

	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotated MJPEG stream, camera checks and detection events over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		return app.NewApp(cfg, log).Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 5000, "HTTP port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}
