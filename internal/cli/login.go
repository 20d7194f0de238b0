package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/evcraddock/visitor-desk/internal/auth"
	"github.com/evcraddock/visitor-desk/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long: "Prompts for an API key, checks it against the server and stores it.\n" +
			"Keys are issued by a passkey login (POST /passkey/login/finish) or by\n" +
			"'vd keys create' on the server host.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readAPIKey(os.Stdin)
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), server, key)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or "+defaultServerURL+")")

	return cmd
}

// readAPIKey prompts for a key without echo when stdin is a terminal.
func readAPIKey(in *os.File) (string, error) {
	fmt.Print("API key: ")
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runLogin(ctx context.Context, serverFlag, key string) error {
	if err := validateAPIKey(key); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	me, err := client.New(serverURL, key).Me(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("the server rejected this API key")
	}
	if err != nil {
		return fmt.Errorf("checking API key: %w", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.APIKey = key
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("✓ Logged in as %s (%s).\n", me.Email, me.Role)
	return nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, auth.APIKeyPrefix) {
		return fmt.Errorf("invalid API key format (should start with %s)", auth.APIKeyPrefix)
	}
	return nil
}
