package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runStatus(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverURL := getServerURL()
	apiKey := getAPIKey()

	fmt.Fprintf(w, "Server:  %s\n", serverURL)

	if apiKey == "" {
		fmt.Fprintln(w, "API Key: not configured")
		fmt.Fprintln(w, "\nRun 'vd login' to authenticate.")
		return nil
	}

	prefix := apiKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Fprintf(w, "API Key: %s…\n", prefix)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c := client.New(serverURL, apiKey)
	if err := c.Health(ctx); err != nil {
		fmt.Fprintf(w, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}

	me, err := c.Me(ctx)
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Fprintf(w, "Status:  ✓ connected and authenticated as %s (%s)\n", me.Email, me.Role)
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(w, "Status:  ✗ invalid API key")
		fmt.Fprintln(w, "\nRun 'vd login' to re-authenticate.")
	case errors.As(err, &apiErr):
		fmt.Fprintf(w, "Status:  ✗ unexpected response (%d)\n", apiErr.StatusCode)
	default:
		fmt.Fprintf(w, "Status:  ✗ %v\n", err)
	}

	return nil
}
