package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printVisitorSummary prints a single visitor in text format.
func printVisitorSummary(w io.Writer, v *visitor.Visitor) {
	fmt.Fprintf(w, "Visitor #%d\n", v.ID)
	fmt.Fprintf(w, "  Name:     %s\n", v.Name)
	if v.Phone != "" {
		fmt.Fprintf(w, "  Phone:    %s\n", v.Phone)
	}
	if v.Purpose != "" {
		fmt.Fprintf(w, "  Purpose:  %s\n", v.Purpose)
	}
	fmt.Fprintf(w, "  Status:   %s\n", v.Status.Label())
	if v.AddedBy != "" {
		fmt.Fprintf(w, "  Added by: %s\n", v.AddedBy)
	}
	fmt.Fprintf(w, "  Added:    %s\n", formatTime(v.CreatedAt))
	if v.CheckedInAt != nil {
		fmt.Fprintf(w, "  In:       %s\n", formatTime(*v.CheckedInAt))
	}
	if v.CheckedOutAt != nil {
		fmt.Fprintf(w, "  Out:      %s\n", formatTime(*v.CheckedOutAt))
	}
}

// printVisitorTable prints a list of visitors as a formatted table.
func printVisitorTable(w io.Writer, visitors []visitor.Visitor, total int) error {
	if len(visitors) == 0 {
		fmt.Fprintln(w, "No visitors found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tPHONE\tSTATUS\tADDED BY\tADDED"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(tw, "--\t----\t-----\t------\t--------\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, v := range visitors {
		phone := v.Phone
		if phone == "" {
			phone = "-"
		}
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, truncate(v.Name, 30), phone, v.Status.Label(), truncate(v.AddedBy, 30), formatTime(v.CreatedAt)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	if total > len(visitors) {
		fmt.Fprintf(w, "\nShowing %d of %d visitors\n", len(visitors), total)
	} else {
		fmt.Fprintf(w, "\nTotal: %d visitors\n", len(visitors))
	}
	return nil
}

// formatTime renders t in local time, or "-" when unset.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
