package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/logging"
	"github.com/evcraddock/visitor-desk/internal/refresh"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func newListCmd() *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visitors",
		Long:  "Load the visitor list once and print it, filtered by view (all, my-invites, visitor-request).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), visitor.View(view))
		},
	}

	cmd.Flags().StringVar(&view, "view", string(visitor.ViewAll), "view to show (all|my-invites|visitor-request)")

	return cmd
}

func validView(v visitor.View) bool {
	for _, known := range visitor.Views {
		if v == known {
			return true
		}
	}
	return false
}

func runList(ctx context.Context, view visitor.View) error {
	if !validView(view) {
		return fmt.Errorf("invalid view %q (want all, my-invites or visitor-request)", view)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logging.Discard()

	ctrl, cache, err := newController(view)
	if err != nil {
		return err
	}
	defer cache.Close()
	defer ctrl.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if ctrl.Refresh(ctx) != refresh.Refreshed {
		snap := ctrl.Snapshot()
		if snap.Err != nil {
			return fmt.Errorf("%s (%w)", snap.Err.Message(), snap.Err)
		}
		return fmt.Errorf("loading visitors failed")
	}

	snap := ctrl.Snapshot()
	me := ""
	if view == visitor.ViewMyInvites {
		who, err := newAPIClient().Me(ctx)
		if err != nil {
			return fmt.Errorf("looking up current user: %w", err)
		}
		me = who.Email
	}
	visitors := visitor.Filter(snap.Visitors, view, me)

	if isJSON() {
		return printJSON(map[string]interface{}{
			"view":     view,
			"visitors": visitors,
			"total":    snap.Total,
		})
	}

	return printVisitorTable(os.Stdout, visitors, snap.Total)
}
