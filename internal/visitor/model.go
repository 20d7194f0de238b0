// Package visitor provides the visitor record domain model and data access.
package visitor

import (
	"strings"
	"time"
	"unicode"
)

// Status is the lifecycle state of a visitor request.
type Status string

const (
	Pending    Status = "pending"
	CheckedIn  Status = "checked_in"
	CheckedOut Status = "checked_out"
	Rejected   Status = "rejected"
	Approved   Status = "approved"
)

// ValidStatuses is the set of allowed statuses.
var ValidStatuses = []Status{Pending, CheckedIn, CheckedOut, Rejected, Approved}

// IsValid checks if a status is recognized.
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case Pending:
		return "Pending"
	case CheckedIn:
		return "Checked in"
	case CheckedOut:
		return "Checked out"
	case Rejected:
		return "Rejected"
	case Approved:
		return "Approved"
	default:
		return string(s)
	}
}

// Visitor is a single visitor record as served by the API.
type Visitor struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Status       Status     `json:"status"`
	Purpose      string     `json:"purpose,omitempty"`
	ImageRef     string     `json:"image_ref,omitempty"` // URI or storage key
	AddedBy      string     `json:"added_by"`
	CreatedAt    time.Time  `json:"created_at"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt *time.Time `json:"checked_out_at,omitempty"`
}

// View names the list tab a visitor list is shown under.
type View string

const (
	ViewAll            View = "all"
	ViewMyInvites      View = "my-invites"
	ViewVisitorRequest View = "visitor-request"
)

// Views lists the known tabs in display order.
var Views = []View{ViewAll, ViewMyInvites, ViewVisitorRequest}

// Label returns the tab title.
func (v View) Label() string {
	switch v {
	case ViewAll:
		return "All Visitors"
	case ViewMyInvites:
		return "My Invites"
	case ViewVisitorRequest:
		return "Visitor Requests"
	default:
		return string(v)
	}
}

// Filter returns the visitors shown under view for the user me.
// Server order is preserved. Unknown views show everything.
func Filter(visitors []Visitor, view View, me string) []Visitor {
	out := make([]Visitor, 0, len(visitors))
	for _, v := range visitors {
		switch view {
		case ViewMyInvites:
			if !strings.EqualFold(v.AddedBy, me) {
				continue
			}
		case ViewVisitorRequest:
			if v.Status != Pending {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

// Initial returns the placeholder letter shown while a visitor's photo is
// unavailable, or "?" for names without a letter.
func Initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return "?"
}
