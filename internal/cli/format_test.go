package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world!", 8, "hello..."},
		{"multibyte", "Zoë Ångström-Łukasz", 6, "Zoë..."},
		{"tiny max", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}

func TestPrintVisitorTable(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	visitors := []visitor.Visitor{
		{ID: 2, Name: "Jane Doe", Phone: "555-0100", Status: visitor.CheckedIn, AddedBy: "amy@example.com", CreatedAt: created},
		{ID: 1, Name: "John Roe", Status: visitor.Pending, CreatedAt: created},
	}

	var buf bytes.Buffer
	if err := printVisitorTable(&buf, visitors, 5); err != nil {
		t.Fatalf("printVisitorTable() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"Jane Doe", "555-0100", "Checked in", "amy@example.com", "Pending", "Showing 2 of 5 visitors"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintVisitorTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printVisitorTable(&buf, nil, 0); err != nil {
		t.Fatalf("printVisitorTable() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No visitors found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrintVisitorSummary(t *testing.T) {
	in := time.Date(2026, 3, 1, 9, 5, 0, 0, time.UTC)
	v := &visitor.Visitor{
		ID:          7,
		Name:        "Jane Doe",
		Purpose:     "Interview",
		Status:      visitor.CheckedIn,
		CreatedAt:   in,
		CheckedInAt: &in,
	}

	var buf bytes.Buffer
	printVisitorSummary(&buf, v)
	out := buf.String()

	for _, want := range []string{"Visitor #7", "Interview", "Checked in", "In:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Phone:") {
		t.Error("empty phone should be omitted")
	}
	if strings.Contains(out, "Out:") {
		t.Error("unset checkout should be omitted")
	}
}

func TestFormatTimeZero(t *testing.T) {
	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("formatTime(zero) = %q, want -", got)
	}
}
