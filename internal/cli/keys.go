package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/auth"
)

// newKeysCmd manages API keys directly in the server database.
func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys (server host)",
		Long:  "Create, list and revoke API keys directly in the server database.",
	}

	var name, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthStores(func(keys *auth.APIKeyStore, users *auth.UserStore) error {
				if !users.IsAuthorized(email) {
					return fmt.Errorf("%s is not an authorized user (add them with 'vd users add')", email)
				}
				raw, key, err := keys.Create(name, email)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(map[string]interface{}{"key": raw, "api_key": key})
				}
				fmt.Printf("Created key #%d for %s.\n", key.ID, key.Email)
				fmt.Printf("\n  %s\n\nStore it now; it is not shown again.\n", raw)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "CLI", "label for the key")
	create.Flags().StringVar(&email, "email", "", "owner email")
	_ = create.MarkFlagRequired("email")

	var listEmail string
	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthStores(func(keys *auth.APIKeyStore, _ *auth.UserStore) error {
				var (
					all []auth.APIKey
					err error
				)
				if listEmail != "" {
					all, err = keys.List(listEmail)
				} else {
					all, err = keys.ListAll()
				}
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(all)
				}
				return printKeyTable(all)
			})
		},
	}
	list.Flags().StringVar(&listEmail, "email", "", "only keys owned by this email")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID: %s", args[0])
			}
			return withAuthStores(func(keys *auth.APIKeyStore, _ *auth.UserStore) error {
				if err := keys.Revoke(id); err != nil {
					return err
				}
				fmt.Printf("Key #%d revoked.\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}

func printKeyTable(keys []auth.APIKey) error {
	if len(keys) == 0 {
		fmt.Println("No API keys.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNAME\tOWNER\tPREFIX\tCREATED\tLAST USED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, k := range keys {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = formatTime(*k.LastUsedAt)
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s…\t%s\t%s\n",
			k.ID, k.Name, k.Email, k.KeyPrefix, formatTime(k.CreatedAt), lastUsed); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// withAuthStores opens the server database for an admin command.
func withAuthStores(fn func(*auth.APIKeyStore, *auth.UserStore) error) error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	return fn(auth.NewAPIKeyStore(database), auth.NewUserStore(database, os.Getenv("VD_ADMIN_EMAIL")))
}
