package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Long: `Removes the stored API key from the config file. The server URL and
watch intervals are kept.

The key itself stays valid on the server. To revoke it, run
'vd keys delete <id>' on the server host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.OutOrStdout())
		},
	}
}

func runLogout(w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	server := cfg.ServerURL
	if server == "" {
		server = defaultServerURL
	}

	if cfg.APIKey == "" {
		fmt.Fprintf(w, "Not logged in to %s.\n", server)
		return nil
	}

	cfg.APIKey = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintf(w, "✓ Logged out of %s.\n", server)
	fmt.Fprintln(w, "  The key is still valid. Revoke it with 'vd keys delete <id>' on the server host.")
	return nil
}
