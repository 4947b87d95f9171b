package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"weaponcam/internal/service"

	"github.com/spf13/cobra"
)

var probeKind string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the camera opens and delivers a frame",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := service.ProbeKind(probeKind)
		if kind != service.ProbeCamera && kind != service.ProbePermissions {
			return fmt.Errorf("unknown probe kind %q (want camera or permissions)", probeKind)
		}

		result := service.NewManager(cfg, log, nil, nil).Probe(cmd.Context(), kind)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if result.Status != service.StatusSuccess {
			return fmt.Errorf("camera check failed")
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeKind, "kind", string(service.ProbeCamera), "probe wording: camera or permissions")
	rootCmd.AddCommand(probeCmd)
}
