package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"project-tracker/internal/apperr"
	"project-tracker/internal/logger"
	"project-tracker/internal/models"
	"project-tracker/internal/testutil"

	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *ProjectService
	admin models.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	admin := testutil.CreateUser(t, db, "admin@example.com", "secret", true)
	return fixture{
		db:    db,
		svc:   NewProjectService(db, WithLogger(logger.Discard())),
		admin: admin.Actor(),
	}
}

func (f fixture) technician(t *testing.T, email string) models.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, email, "secret", false)
}

func (f fixture) roster(t *testing.T, projectID uint) []uint {
	t.Helper()
	var ids []uint
	if err := f.db.Model(&models.ProjectAssignment{}).
		Where("project_id = ?", projectID).
		Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		t.Fatal(err)
	}
	return ids
}

func validInput(email string) CreateProjectInput {
	return CreateProjectInput{
		Name:        "Roof repair",
		Description: "Replace damaged tiles",
		StartDate:   "2024-05-01",
		DueDate:     "2024-05-20",
		ClientEmail: email,
	}
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1, err := f.svc.Create(ctx, f.admin, validInput("jane@client.com"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p2, err := f.svc.Create(ctx, f.admin, validInput("jane@client.com"))
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	if p1.SharedLinkToken == "" || p1.SharedLinkToken == p2.SharedLinkToken {
		t.Fatalf("tokens not distinct: %q %q", p1.SharedLinkToken, p2.SharedLinkToken)
	}
	if p1.Status != models.StatusOpen {
		t.Errorf("status = %q, want Open", p1.Status)
	}
	if p1.ClientID == nil || p2.ClientID == nil || *p1.ClientID != *p2.ClientID {
		t.Fatalf("projects should share one client: %v %v", p1.ClientID, p2.ClientID)
	}

	var clients []models.Client
	if err := f.db.Find(&clients).Error; err != nil {
		t.Fatal(err)
	}
	if len(clients) != 1 {
		t.Fatalf("clients = %d, want 1", len(clients))
	}
	if clients[0].Name != "jane" {
		t.Errorf("default client name = %q, want local part", clients[0].Name)
	}
}

func TestCreateProjectRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateProjectInput)
		want   error
	}{
		{"impossible_date", func(in *CreateProjectInput) { in.StartDate = "2024-29-31" }, apperr.ErrInvalidDateFormat},
		{"wrong_shape", func(in *CreateProjectInput) { in.DueDate = "20/05/2024" }, apperr.ErrInvalidDateFormat},
		{"bad_email", func(in *CreateProjectInput) { in.ClientEmail = "not-an-email" }, apperr.ErrValidation},
		{"empty_name", func(in *CreateProjectInput) { in.Name = "  " }, apperr.ErrValidation},
		{"header_break_in_name", func(in *CreateProjectInput) { in.Name = "Roof\r\nBcc: x@evil.test" }, apperr.ErrValidation},
		{"long_name", func(in *CreateProjectInput) { in.Name = strings.Repeat("n", 192) }, apperr.ErrValidation},
		{"long_description", func(in *CreateProjectInput) { in.Description = strings.Repeat("d", 192) }, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput("jane@client.com")
			tt.mutate(&in)

			_, err := f.svc.Create(context.Background(), f.admin, in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var n int64
			f.db.Model(&models.Project{}).Count(&n)
			if n != 0 {
				t.Fatalf("projects = %d, want none written", n)
			}
			f.db.Model(&models.Client{}).Count(&n)
			if n != 0 {
				t.Fatalf("clients = %d, want none written", n)
			}
		})
	}
}

func TestCreateProjectRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	tech := f.technician(t, "t@example.com")

	_, err := f.svc.Create(context.Background(), tech.Actor(), validInput("jane@client.com"))
	if !errors.Is(err, apperr.ErrAdminRequired) {
		t.Fatalf("err = %v, want admin required", err)
	}
}

func TestAssignOpenProjectGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	a := testutil.CreateProject(t, f.db, "a", models.StatusOpen, "2024-01-01", "2024-02-01")
	b := testutil.CreateProject(t, f.db, "b", models.StatusOpen, "2024-01-01", "2024-02-01")

	if _, err := f.svc.Assign(ctx, f.admin, a.ID, []uint{tech.ID}); err != nil {
		t.Fatalf("assign a: %v", err)
	}
	_, err := f.svc.Assign(ctx, f.admin, b.ID, []uint{tech.ID})
	if !errors.Is(err, apperr.ErrTechnicianHasOpenProject) {
		t.Fatalf("assign b err = %v, want conflict", err)
	}
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
	}
	if got := f.roster(t, b.ID); len(got) != 0 {
		t.Fatalf("b roster = %v, want empty", got)
	}

	if _, err := f.svc.SetStatus(ctx, f.admin, a.ID, models.StatusInProgress); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if _, err := f.svc.Assign(ctx, f.admin, b.ID, []uint{tech.ID}); err != nil {
		t.Fatalf("assign b after a left Open: %v", err)
	}
}

func TestAssignReplacesRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1 := f.technician(t, "t1@example.com")
	t2 := f.technician(t, "t2@example.com")
	t3 := f.technician(t, "t3@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")

	if _, err := f.svc.Assign(ctx, f.admin, p.ID, []uint{t1.ID, t2.ID, t2.ID}); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	got, err := f.svc.Assign(ctx, f.admin, p.ID, []uint{t2.ID, t3.ID})
	if err != nil {
		t.Fatalf("second assign: %v", err)
	}

	want := []uint{t2.ID, t3.ID}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	roster := f.roster(t, p.ID)
	if len(roster) != 2 || roster[0] != want[0] || roster[1] != want[1] {
		t.Fatalf("roster = %v, want %v", roster, want)
	}
	if len(got.AssignedTechnicians) != 2 {
		t.Fatalf("returned technicians = %d, want 2", len(got.AssignedTechnicians))
	}
}

func TestAssignRejectsInvalidUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")

	tests := []struct {
		name string
		ids  []uint
	}{
		{"missing_user", []uint{tech.ID, 999}},
		{"admin_user", []uint{f.admin.UserID}},
		{"zero_id", []uint{0}},
		{"zero_with_valid", []uint{tech.ID, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Assign(ctx, f.admin, p.ID, tt.ids)
			if !errors.Is(err, apperr.ErrInvalidUserIDs) {
				t.Fatalf("err = %v, want invalid user ids", err)
			}
			if got := f.roster(t, p.ID); len(got) != 0 {
				t.Fatalf("roster = %v, want nothing written", got)
			}
		})
	}

	if _, err := f.svc.Assign(ctx, f.admin, p.ID, []uint{tech.ID}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.svc.Assign(ctx, f.admin, p.ID, []uint{0}); !errors.Is(err, apperr.ErrInvalidUserIDs) {
		t.Fatalf("zero id err = %v, want invalid user ids", err)
	}
	if got := f.roster(t, p.ID); len(got) != 1 || got[0] != tech.ID {
		t.Fatalf("roster = %v, want [%d] kept", got, tech.ID)
	}

	if _, err := f.svc.Assign(ctx, f.admin, 12345, []uint{tech.ID}); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("missing project err = %v", err)
	}
	if _, err := f.svc.Assign(ctx, tech.Actor(), p.ID, []uint{tech.ID}); !errors.Is(err, apperr.ErrAdminRequired) {
		t.Fatalf("technician assign err = %v", err)
	}
}

func TestSetStatusPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	other := f.technician(t, "o@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")
	testutil.Assign(t, f.db, p.ID, tech.ID)

	tests := []struct {
		name  string
		actor models.Actor
		next  models.ProjectStatus
		want  error
	}{
		{"tech_completed", tech.Actor(), models.StatusCompleted, nil},
		{"tech_closed", tech.Actor(), models.StatusClosed, apperr.ErrInvalidStatus},
		{"tech_rejected", tech.Actor(), models.StatusRejected, apperr.ErrInvalidStatus},
		{"unassigned_tech", other.Actor(), models.StatusInProgress, apperr.ErrNotAssigned},
		{"admin_closed", f.admin, models.StatusClosed, nil},
		{"admin_bogus", f.admin, "Archived", apperr.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := models.Project{}
			f.db.First(&before, p.ID)

			got, err := f.svc.SetStatus(ctx, tt.actor, p.ID, tt.next)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("err = %v, want %v", err, tt.want)
				}
				after := models.Project{}
				f.db.First(&after, p.ID)
				if after.Status != before.Status {
					t.Fatalf("status changed to %q on rejected request", after.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetStatus: %v", err)
			}
			if got.Status != tt.next {
				t.Fatalf("status = %q, want %q", got.Status, tt.next)
			}
		})
	}

	if _, err := f.svc.SetStatus(ctx, f.admin, 999, models.StatusOpen); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("missing project err = %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idle := f.technician(t, "idle@example.com")
	busy := f.technician(t, "busy@example.com")
	a := testutil.CreateProject(t, f.db, "a", models.StatusOpen, "2024-01-01", "2024-02-01")
	testutil.CreateProject(t, f.db, "b", models.StatusOpen, "2024-01-01", "2024-02-01")
	testutil.Assign(t, f.db, a.ID, busy.ID)

	got, err := f.svc.List(ctx, idle.Actor(), Page{})
	if err != nil {
		t.Fatalf("List idle: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("idle technician sees %d projects, want 0", len(got))
	}

	got, err = f.svc.List(ctx, busy.Actor(), Page{})
	if err != nil {
		t.Fatalf("List busy: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("busy technician sees %v, want only project a", got)
	}

	got, err = f.svc.List(ctx, f.admin, Page{})
	if err != nil {
		t.Fatalf("List admin: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("admin sees %d projects, want 2", len(got))
	}

	got, err = f.svc.List(ctx, f.admin, Page{Number: 1, PerPage: 1})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if len(got) != 1 || got[0].Name != "b" {
		t.Fatalf("page 1 = %v, want project b", got)
	}
}

func TestGetVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")

	if _, err := f.svc.Get(ctx, tech.Actor(), p.ID); !errors.Is(err, apperr.ErrNotAssigned) {
		t.Fatalf("unassigned err = %v, want forbidden", err)
	}
	if _, err := f.svc.Get(ctx, tech.Actor(), 999); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("missing err = %v, want not found", err)
	}

	testutil.Assign(t, f.db, p.ID, tech.ID)
	got, err := f.svc.Get(ctx, tech.Actor(), p.ID)
	if err != nil {
		t.Fatalf("assigned Get: %v", err)
	}
	if len(got.AssignedTechnicians) != 1 || got.AssignedTechnicians[0].ID != tech.ID {
		t.Fatalf("technicians = %v", got.AssignedTechnicians)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateProject(t, f.db, "Kitchen", models.StatusOpen, "2020-01-01", "2020-02-01")
	testutil.CreateProject(t, f.db, "Garden", models.StatusCompleted, "2099-01-01", "2099-03-15")

	tests := []struct {
		name    string
		filter  SearchFilter
		want    []string
		wantErr error
	}{
		{"by_name", SearchFilter{Name: "kitch"}, []string{"Kitchen"}, nil},
		{"by_status", SearchFilter{Status: "Completed"}, []string{"Garden"}, nil},
		{"by_due", SearchFilter{DueDate: "2099-03-15"}, []string{"Garden"}, nil},
		{"range", SearchFilter{RangeStart: "2019-12-01", RangeEnd: "2020-12-31"}, []string{"Kitchen"}, nil},
		{"overdue", SearchFilter{FindAllOverdue: true}, []string{"Kitchen"}, nil},
		{"combined_empty", SearchFilter{Name: "Garden", FindAllOverdue: true}, nil, apperr.ErrNoProjectsFound},
		{"bad_date", SearchFilter{DueDate: "2020-13-01"}, nil, apperr.ErrInvalidDateFormat},
		{"bad_status", SearchFilter{Status: "Archived"}, nil, apperr.ErrInvalidStatus},
		{"half_range", SearchFilter{RangeStart: "2020-01-01"}, nil, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Search(ctx, f.admin, tt.filter)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			var names []string
			for _, p := range got {
				names = append(names, p.Name)
			}
			if len(names) != len(tt.want) || (len(names) > 0 && names[0] != tt.want[0]) {
				t.Fatalf("names = %v, want %v", names, tt.want)
			}
		})
	}

	tech := f.technician(t, "t@example.com")
	if _, err := f.svc.Search(ctx, tech.Actor(), SearchFilter{}); !errors.Is(err, apperr.ErrNoProjectsFound) {
		t.Fatalf("technician search err = %v, want no projects", err)
	}
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")

	name := "renamed"
	due := "2024-03-01"
	status := models.StatusInProgress
	ids := []uint{tech.ID}
	got, err := f.svc.Update(ctx, f.admin, p.ID, UpdateProjectInput{
		Name:    &name,
		DueDate: &due,
		Status:  &status,
		UserIDs: &ids,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != name || got.DueDate.String() != due || got.Status != status {
		t.Fatalf("got %+v", got)
	}
	if len(got.AssignedTechnicians) != 1 {
		t.Fatalf("technicians = %d, want 1", len(got.AssignedTechnicians))
	}

	bad := "2024-02-30"
	if _, err := f.svc.Update(ctx, f.admin, p.ID, UpdateProjectInput{StartDate: &bad}); !errors.Is(err, apperr.ErrInvalidDateFormat) {
		t.Fatalf("bad date err = %v", err)
	}
	for _, bad := range []string{"a\nb", strings.Repeat("n", 192)} {
		if _, err := f.svc.Update(ctx, f.admin, p.ID, UpdateProjectInput{Name: &bad}); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("name %q err = %v, want validation", bad, err)
		}
	}
	if _, err := f.svc.Update(ctx, f.admin, 999, UpdateProjectInput{Name: &name}); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")
	testutil.Assign(t, f.db, p.ID, tech.ID)
	if _, err := f.svc.PostComment(ctx, tech.Actor(), p.ID, "on site tomorrow"); err != nil {
		t.Fatalf("PostComment: %v", err)
	}

	if err := f.svc.Delete(ctx, f.admin, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, model := range []any{&models.Project{}, &models.ProjectAssignment{}, &models.Comment{}} {
		var n int64
		f.db.Model(model).Count(&n)
		if n != 0 {
			t.Fatalf("%T rows = %d after delete", model, n)
		}
	}
	if err := f.svc.Delete(ctx, f.admin, p.ID); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestPostComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.technician(t, "t@example.com")
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")

	if _, err := f.svc.PostComment(ctx, tech.Actor(), p.ID, "hello"); !errors.Is(err, apperr.ErrNotAssigned) {
		t.Fatalf("unassigned err = %v", err)
	}
	if _, err := f.svc.PostComment(ctx, f.admin, p.ID, " "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty text err = %v", err)
	}
	if _, err := f.svc.PostComment(ctx, f.admin, 999, "hello"); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("missing project err = %v", err)
	}

	c, err := f.svc.PostComment(ctx, f.admin, p.ID, "materials ordered")
	if err != nil {
		t.Fatalf("admin comment: %v", err)
	}
	if c.UserID != f.admin.UserID || c.ProjectID != p.ID {
		t.Fatalf("comment = %+v", c)
	}

	got, err := f.svc.Get(ctx, f.admin, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Comments) != 1 || got.Comments[0].User == nil || got.Comments[0].User.ID != f.admin.UserID {
		t.Fatalf("comments = %+v", got.Comments)
	}
}

func TestExportOverdueLastMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.CreateProject(t, f.db, "late", models.StatusInProgress, "2020-01-01", "2020-02-01")
	testutil.CreateProject(t, f.db, "future", models.StatusOpen, "2099-01-01", "2099-02-01")

	got, err := f.svc.ExportOverdueLastMonth(ctx, f.admin)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(got) != 1 || got[0].Name != "late" {
		t.Fatalf("export = %v, want only late", got)
	}
}

func TestSharedView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := testutil.CreateProject(t, f.db, "p", models.StatusOpen, "2024-01-01", "2024-02-01")

	v, err := f.svc.SharedView(ctx, p.SharedLinkToken)
	if err != nil {
		t.Fatalf("SharedView: %v", err)
	}
	if v.Name != "p" || v.StartDate.String() != "2024-01-01" || v.Status != models.StatusOpen {
		t.Fatalf("view = %+v", v)
	}
	if _, err := f.svc.SharedView(ctx, "nope"); !errors.Is(err, apperr.ErrProjectNotFound) {
		t.Fatalf("unknown token err = %v", err)
	}
}
