package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func newAddCmd() *cobra.Command {
	var nv visitor.NewVisitor
	var photo string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a visitor",
		Long:  "Register a new pending visitor, optionally uploading a photo first.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nv.Name = strings.Join(args, " ")
			return runAdd(cmd.Context(), nv, photo)
		},
	}

	cmd.Flags().StringVar(&nv.Phone, "phone", "", "visitor phone number")
	cmd.Flags().StringVar(&nv.Purpose, "purpose", "", "reason for the visit")
	cmd.Flags().StringVar(&photo, "photo", "", "path to a photo to upload")

	return cmd
}

func runAdd(ctx context.Context, nv visitor.NewVisitor, photo string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c := newAPIClient()

	if photo != "" {
		key, err := uploadFile(ctx, c, photo)
		if err != nil {
			return err
		}
		nv.ImageRef = key
	}

	v, err := c.AddVisitor(ctx, nv)
	if err != nil {
		return fmt.Errorf("adding visitor: %w", err)
	}

	if isJSON() {
		return printJSON(v)
	}

	fmt.Println("Visitor added.")
	printVisitorSummary(os.Stdout, v)
	return nil
}
