package web

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/evcraddock/visitor-desk/internal/auth"
	"github.com/evcraddock/visitor-desk/internal/visitor"
)

func TestListVisitorsEmpty(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/visitors", testAdmin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"visitors\":[],\"total\":0}\n" {
		t.Errorf("body = %q, want empty list", got)
	}
}

func TestAddAndListVisitors(t *testing.T) {
	env := setupTestServer(t)
	env.addUser(t, "amy@example.com", "Amy", auth.RoleEmployee)

	rec := env.do(t, http.MethodPost, "/api/visitors", "amy@example.com", visitor.NewVisitor{
		Name:  "Jane Doe",
		Phone: "555-0100",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var added visitor.Visitor
	decode(t, rec, &added)
	if added.AddedBy != "amy@example.com" {
		t.Errorf("AddedBy = %q, want caller", added.AddedBy)
	}
	if added.Status != visitor.Pending {
		t.Errorf("Status = %q, want pending", added.Status)
	}

	env.do(t, http.MethodPost, "/api/visitors", testAdmin, visitor.NewVisitor{Name: "John Roe"})

	rec = env.do(t, http.MethodGet, "/api/visitors", "amy@example.com", nil)
	var list listVisitorsResponse
	decode(t, rec, &list)
	if list.Total != 2 || len(list.Visitors) != 2 {
		t.Fatalf("list = %+v, want 2 visitors", list)
	}
	if list.Visitors[0].Name != "John Roe" {
		t.Errorf("first visitor = %q, want newest first", list.Visitors[0].Name)
	}
}

func TestAddVisitorValidation(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/visitors", testAdmin, visitor.NewVisitor{Name: "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/visitors", testAdmin, "not an object")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func TestSetStatus(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodPost, "/api/visitors", testAdmin, visitor.NewVisitor{Name: "Jane"})
	var v visitor.Visitor
	decode(t, rec, &v)

	rec = env.do(t, http.MethodPost, "/api/visitors/"+itoa(v.ID)+"/status", testAdmin, map[string]string{"status": "checked_in"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &v)
	if v.Status != visitor.CheckedIn || v.CheckedInAt == nil {
		t.Errorf("visitor = %+v, want checked in with timestamp", v)
	}

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"invalid status", "/api/visitors/" + itoa(v.ID) + "/status", map[string]string{"status": "lost"}, http.StatusBadRequest},
		{"unknown visitor", "/api/visitors/9999/status", map[string]string{"status": "approved"}, http.StatusNotFound},
		{"bad id", "/api/visitors/abc/status", map[string]string{"status": "approved"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, testAdmin, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestDeleteVisitorRoles(t *testing.T) {
	env := setupTestServer(t)
	env.addUser(t, "emp@example.com", "Emp", auth.RoleEmployee)
	env.addUser(t, "co@example.com", "Co", auth.RoleCompany)

	rec := env.do(t, http.MethodPost, "/api/visitors", testAdmin, visitor.NewVisitor{Name: "Jane"})
	var v visitor.Visitor
	decode(t, rec, &v)
	path := "/api/visitors/" + itoa(v.ID)

	if rec := env.do(t, http.MethodDelete, path, "emp@example.com", nil); rec.Code != http.StatusForbidden {
		t.Errorf("employee delete status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, path, "co@example.com", nil); rec.Code != http.StatusOK {
		t.Errorf("company delete status = %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, path, testAdmin, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
