package policy

import (
	"errors"
	"reflect"
	"testing"

	"project-tracker/internal/apperr"
	"project-tracker/internal/models"
)

var (
	admin = models.Actor{UserID: 1, Role: models.RoleAdmin}
	tech  = models.Actor{UserID: 2, Role: models.RoleTechnician}
)

func TestCanSetStatus(t *testing.T) {
	tests := []struct {
		name     string
		actor    models.Actor
		assigned bool
		next     models.ProjectStatus
		want     error
	}{
		{"admin_closed", admin, false, models.StatusClosed, nil},
		{"admin_rejected", admin, false, models.StatusRejected, nil},
		{"admin_open", admin, false, models.StatusOpen, nil},
		{"tech_in_progress", tech, true, models.StatusInProgress, nil},
		{"tech_completed", tech, true, models.StatusCompleted, nil},
		{"tech_back_to_open", tech, true, models.StatusOpen, nil},
		{"tech_closed", tech, true, models.StatusClosed, apperr.ErrInvalidStatus},
		{"tech_rejected", tech, true, models.StatusRejected, apperr.ErrInvalidStatus},
		{"tech_unknown", tech, true, "Done", apperr.ErrInvalidStatus},
		{"admin_unknown", admin, false, "Done", apperr.ErrInvalidStatus},
		{"tech_unassigned", tech, false, models.StatusCompleted, apperr.ErrNotAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanSetStatus(tt.actor, tt.assigned, tt.next)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("CanSetStatus = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("CanSetStatus = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAllowedStatusesCoversEveryRole(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleTechnician} {
		if len(AllowedStatuses(role)) == 0 {
			t.Fatalf("role %s has no allowed statuses", role)
		}
	}
	if got := len(AllowedStatuses(models.RoleAdmin)); got != 5 {
		t.Fatalf("admin statuses = %d, want 5", got)
	}
}

func TestCheckAssignment(t *testing.T) {
	users := []models.User{
		{ID: 10, IsAdmin: false},
		{ID: 11, IsAdmin: false},
		{ID: 1, IsAdmin: true},
	}

	t.Run("ok", func(t *testing.T) {
		if err := CheckAssignment([]uint{10, 11}, users, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("unknown_user", func(t *testing.T) {
		err := CheckAssignment([]uint{10, 99}, users, nil)
		if !errors.Is(err, apperr.ErrInvalidUserIDs) {
			t.Fatalf("err = %v, want invalid user ids", err)
		}
	})
	t.Run("admin_is_not_a_technician", func(t *testing.T) {
		err := CheckAssignment([]uint{1}, users, nil)
		if !errors.Is(err, apperr.ErrInvalidUserIDs) {
			t.Fatalf("err = %v, want invalid user ids", err)
		}
	})
	t.Run("zero_id", func(t *testing.T) {
		err := CheckAssignment([]uint{10, 0}, users, nil)
		if !errors.Is(err, apperr.ErrInvalidUserIDs) {
			t.Fatalf("err = %v, want invalid user ids", err)
		}
	})
	t.Run("open_project_elsewhere", func(t *testing.T) {
		err := CheckAssignment([]uint{10, 11}, users, map[uint][]uint{11: {5}})
		if !errors.Is(err, apperr.ErrTechnicianHasOpenProject) {
			t.Fatalf("err = %v, want conflict", err)
		}
		if apperr.KindOf(err) != apperr.KindConflict {
			t.Fatalf("kind = %v, want conflict", apperr.KindOf(err))
		}
	})
	t.Run("invalid_ids_win_over_conflict", func(t *testing.T) {
		err := CheckAssignment([]uint{11, 99}, users, map[uint][]uint{11: {5}})
		if !errors.Is(err, apperr.ErrInvalidUserIDs) {
			t.Fatalf("err = %v, want invalid user ids", err)
		}
	})
}

func TestRosterDiff(t *testing.T) {
	remove, add := RosterDiff([]uint{1, 2}, []uint{2, 3})
	if !reflect.DeepEqual(remove, []uint{1}) {
		t.Fatalf("remove = %v", remove)
	}
	if !reflect.DeepEqual(add, []uint{3}) {
		t.Fatalf("add = %v", add)
	}

	remove, add = RosterDiff(nil, []uint{4})
	if remove != nil || !reflect.DeepEqual(add, []uint{4}) {
		t.Fatalf("from empty: remove=%v add=%v", remove, add)
	}
}

func TestUniqueIDs(t *testing.T) {
	got := UniqueIDs([]uint{3, 0, 3, 1, 1})
	if !reflect.DeepEqual(got, []uint{3, 0, 1}) {
		t.Fatalf("UniqueIDs = %v", got)
	}
}
