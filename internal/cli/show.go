package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/refresh"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show visitor details",
		Long:  "Show a single visitor, including a link to their photo.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid visitor ID: %s", args[0])
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c := newAPIClient()
	resp, err := c.ListVisitors(ctx)
	if err != nil {
		return fmt.Errorf("loading visitors: %w", err)
	}

	var found *visitor.Visitor
	for i := range resp.Visitors {
		if resp.Visitors[i].ID == id {
			found = &resp.Visitors[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("visitor %d not found", id)
	}

	photo := ""
	if found.ImageRef != "" {
		cache := refresh.NewImageCache(newAPISource(c))
		defer cache.Close()
		if uri, err := cache.Resolve(ctx, found.ImageRef); err == nil {
			photo = uri
		}
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"visitor":   found,
			"photo_uri": photo,
		})
	}

	printVisitorSummary(os.Stdout, found)
	switch {
	case photo != "":
		fmt.Printf("  Photo:    %s\n", photo)
	case found.ImageRef != "":
		fmt.Printf("  Photo:    unavailable [%s]\n", visitor.Initial(found.Name))
	}
	return nil
}
