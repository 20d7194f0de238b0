// Package cli defines the cobra command tree for visitor-desk.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/client"
	"github.com/evcraddock/visitor-desk/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vd",
		Short:         "Front-desk visitor list",
		Long:          "A tool to register visitors, track their check-in status and watch the live visitor list from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for server commands (default: ~/.config/vd/visitors.db)")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newAddCmd(),
		newSetStatusCmd(),
		newRemoveCmd(),
		newUploadCmd(),
		newWatchCmd(),
		newServeCmd(),
		newKeysCmd(),
		newUsersCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
// Used by the server-side admin commands.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = os.Getenv("VD_DB")
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the visitor-desk API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
