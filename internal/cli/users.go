package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/auth"
)

// newUsersCmd manages authorized users directly in the server database.
func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage authorized users (server host)",
	}

	var name, role string
	add := &cobra.Command{
		Use:   "add <email>",
		Short: "Authorize a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("invalid role %q (want one of %v)", role, auth.Roles)
			}
			return withAuthStores(func(_ *auth.APIKeyStore, users *auth.UserStore) error {
				u, err := users.Add(args[0], name, r)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(u)
				}
				fmt.Printf("User #%d %s added as %s.\n", u.ID, u.Email, u.Role)
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&role, "role", string(auth.RoleEmployee), "role (admin|company|employee)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List authorized users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAuthStores(func(_ *auth.APIKeyStore, users *auth.UserStore) error {
				all, err := users.List()
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(all)
				}
				return printUserTable(all)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an authorized user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID: %s", args[0])
			}
			return withAuthStores(func(_ *auth.APIKeyStore, users *auth.UserStore) error {
				if err := users.Delete(id); err != nil {
					return err
				}
				fmt.Printf("User #%d removed.\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func printUserTable(users []*auth.User) error {
	if len(users) == 0 {
		fmt.Println("No users.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tADDED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, u := range users {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			u.ID, u.Email, u.Name, u.Role, formatTime(u.CreatedAt)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}
