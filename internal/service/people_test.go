package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"project-tracker/internal/apperr"
	"project-tracker/internal/logger"
	"project-tracker/internal/models"
	"project-tracker/internal/testutil"

	"golang.org/x/crypto/bcrypt"
)

func TestTechnicianLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewTechnicianService(db, WithLogger(logger.Discard()), WithHashCost(bcrypt.MinCost))
	testutil.CreateUser(t, db, "admin@example.com", "secret", true)

	u, err := svc.Create(ctx, TechnicianInput{Email: "t@example.com", Name: "Tom", Password: "pw"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.IsAdmin {
		t.Fatal("technician created as admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw")) != nil {
		t.Fatal("password not hashed with bcrypt")
	}

	_, err = svc.Create(ctx, TechnicianInput{Email: "t@example.com", Name: "Again", Password: "pw"})
	if !errors.Is(err, apperr.ErrEmailInUse) {
		t.Fatalf("duplicate err = %v, want email in use", err)
	}
	if _, err := svc.Create(ctx, TechnicianInput{Email: "bad", Name: "x", Password: "pw"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad email err = %v", err)
	}

	list, err := svc.List(ctx, Page{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].ID != u.ID {
		t.Fatalf("List = %v, want only the technician", list)
	}

	name := "Thomas"
	got, err := svc.Update(ctx, u.ID, TechnicianUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != name || got.Email != "t@example.com" {
		t.Fatalf("Update = %+v", got)
	}

	p := testutil.CreateProject(t, db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")
	testutil.Assign(t, db, p.ID, u.ID)

	got, err = svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Projects) != 1 || got.Projects[0].ID != p.ID {
		t.Fatalf("projects = %v", got.Projects)
	}

	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var n int64
	db.Model(&models.ProjectAssignment{}).Count(&n)
	if n != 0 {
		t.Fatalf("assignments = %d after technician delete", n)
	}
	if _, err := svc.Get(ctx, u.ID); !errors.Is(err, apperr.ErrTechnicianNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
}

func TestTechnicianServiceIgnoresAdmins(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewTechnicianService(db, WithLogger(logger.Discard()))
	admin := testutil.CreateUser(t, db, "admin@example.com", "secret", true)

	if _, err := svc.Get(ctx, admin.ID); !errors.Is(err, apperr.ErrTechnicianNotFound) {
		t.Fatalf("Get admin err = %v", err)
	}
	if err := svc.Delete(ctx, admin.ID); !errors.Is(err, apperr.ErrTechnicianNotFound) {
		t.Fatalf("Delete admin err = %v", err)
	}
}

func TestListOverdueTechnicians(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := NewTechnicianService(db, WithLogger(logger.Discard()), WithClock(testutil.FixedClock(now)))

	late := testutil.CreateUser(t, db, "late@example.com", "pw", false)
	closed := testutil.CreateUser(t, db, "closed@example.com", "pw", false)
	fine := testutil.CreateUser(t, db, "fine@example.com", "pw", false)

	overdue := testutil.CreateProject(t, db, "overdue", models.StatusInProgress, "2024-05-01", "2024-06-01")
	done := testutil.CreateProject(t, db, "done", models.StatusClosed, "2024-05-01", "2024-06-01")
	ahead := testutil.CreateProject(t, db, "ahead", models.StatusOpen, "2024-06-01", "2024-07-01")
	testutil.Assign(t, db, overdue.ID, late.ID)
	testutil.Assign(t, db, ahead.ID, late.ID)
	testutil.Assign(t, db, done.ID, closed.ID)
	testutil.Assign(t, db, ahead.ID, fine.ID)

	got, err := svc.ListOverdue(ctx, Page{})
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(got) != 1 || got[0].ID != late.ID {
		t.Fatalf("overdue technicians = %v, want only late", got)
	}
	if len(got[0].Projects) != 1 || got[0].Projects[0].ID != overdue.ID {
		t.Fatalf("attached projects = %v, want only the overdue one", got[0].Projects)
	}
}

func TestClientLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	svc := NewClientService(db, WithLogger(logger.Discard()))

	c, err := svc.Create(ctx, ClientInput{Email: "acme@example.com", Name: "Acme"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, ClientInput{Email: "acme@example.com"}); !errors.Is(err, apperr.ErrEmailInUse) {
		t.Fatalf("duplicate err = %v", err)
	}
	if _, err := svc.Create(ctx, ClientInput{Email: "nope"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("bad email err = %v", err)
	}

	p := testutil.CreateProject(t, db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")
	if err := db.Model(&p).Update("client_id", c.ID).Error; err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetByEmail(ctx, "acme@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if len(got.Projects) != 1 {
		t.Fatalf("client projects = %d, want 1", len(got.Projects))
	}

	email := "hello@acme.example.com"
	updated, err := svc.Update(ctx, "acme@example.com", ClientUpdate{Email: &email})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Email != email || updated.Name != "Acme" {
		t.Fatalf("Update = %+v", updated)
	}
	if _, err := svc.GetByEmail(ctx, "acme@example.com"); !errors.Is(err, apperr.ErrClientNotFound) {
		t.Fatalf("old email err = %v", err)
	}

	if err := svc.Delete(ctx, email); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var after models.Project
	if err := db.First(&after, p.ID).Error; err != nil {
		t.Fatalf("project should survive client delete: %v", err)
	}
	if after.ClientID != nil {
		t.Fatalf("client_id = %v, want nil", *after.ClientID)
	}
	if err := svc.Delete(ctx, email); !errors.Is(err, apperr.ErrClientNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}
