package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vd version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if isJSON() {
				return json.NewEncoder(out).Encode(map[string]string{"version": Version})
			}
			_, err := fmt.Fprintf(out, "vd %s\n", Version)
			return err
		},
	}
}
