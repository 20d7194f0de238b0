package visitor

import "testing"

func TestStatusIsValid(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{Pending, true},
		{CheckedIn, true},
		{CheckedOut, true},
		{Rejected, true},
		{Approved, true},
		{"", false},
		{"arrived", false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	if got := CheckedIn.Label(); got != "Checked in" {
		t.Errorf("label = %q", got)
	}
	if got := Status("other").Label(); got != "other" {
		t.Errorf("unknown label = %q, want raw value", got)
	}
}

func TestFilter(t *testing.T) {
	visitors := []Visitor{
		{ID: 3, Name: "Cy", Status: Pending, AddedBy: "me@example.com"},
		{ID: 2, Name: "Bo", Status: CheckedIn, AddedBy: "other@example.com"},
		{ID: 1, Name: "Al", Status: Pending, AddedBy: "other@example.com"},
	}

	tests := []struct {
		name string
		view View
		want []int64
	}{
		{"all keeps everything in order", ViewAll, []int64{3, 2, 1}},
		{"my invites matches added_by", ViewMyInvites, []int64{3}},
		{"visitor requests are pending", ViewVisitorRequest, []int64{3, 1}},
		{"unknown view keeps everything", View("all-visitors"), []int64{3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(visitors, tt.view, "ME@example.com")
			if len(got) != len(tt.want) {
				t.Fatalf("got %d visitors, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("visitor %d id = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestInitial(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ada lovelace", "A"},
		{"  bob", "B"},
		{"élodie", "É"},
		{"(guest)", "G"},
		{"", "?"},
		{"---", "?"},
	}

	for _, tt := range tests {
		if got := Initial(tt.name); got != tt.want {
			t.Errorf("Initial(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
