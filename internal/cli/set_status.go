package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func newSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Change a visitor's status",
		Long:  "Move a visitor to pending, approved, rejected, checked_in or checked_out.",
		Args:  cobra.ExactArgs(2),
		RunE:  runSetStatus,
	}
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid visitor ID: %s", args[0])
	}
	status := visitor.Status(args[1])
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q (want one of %v)", args[1], visitor.ValidStatuses)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v, err := newAPIClient().SetStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if isJSON() {
		return printJSON(v)
	}
	printVisitorSummary(os.Stdout, v)
	return nil
}
