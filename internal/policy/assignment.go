// Package policy holds the pure permission rules for project assignment
// and status changes. Callers load the relevant rows inside a transaction
// and pass them in; nothing here touches the store.
package policy

import (
	"fmt"
	"sort"

	"project-tracker/internal/apperr"
	"project-tracker/internal/models"
)

// UniqueIDs drops duplicates, keeping first-seen order. Zero is kept so
// CheckAssignment reports it as unresolved.
func UniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CheckAssignment validates a requested technician roster for a project.
//
// found holds the users that resolved from requested; busy maps a
// technician id to the ids of other projects they hold with status Open.
// Only Open blocks: In Progress or Completed work elsewhere does not.
func CheckAssignment(requested []uint, found []models.User, busy map[uint][]uint) error {
	byID := make(map[uint]models.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	var invalid []uint
	for _, id := range requested {
		u, ok := byID[id]
		if !ok || u.Role() != models.RoleTechnician {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return apperr.ErrInvalidUserIDs.WithMessage(fmt.Sprintf("Invalid user ID(s): %v", invalid))
	}

	var blocked []uint
	for _, id := range requested {
		if len(busy[id]) > 0 {
			blocked = append(blocked, id)
		}
	}
	if len(blocked) > 0 {
		sort.Slice(blocked, func(i, j int) bool { return blocked[i] < blocked[j] })
		return apperr.ErrTechnicianHasOpenProject.WithMessage(fmt.Sprintf(
			"Technician(s) %v have open projects. Close them before assigning new projects.", blocked))
	}
	return nil
}

// RosterDiff splits a roster replacement into the rows to delete and the
// rows to insert. Technicians present in both sets are left alone.
func RosterDiff(current, desired []uint) (remove, add []uint) {
	want := make(map[uint]struct{}, len(desired))
	for _, id := range desired {
		want[id] = struct{}{}
	}
	have := make(map[uint]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
		if _, ok := want[id]; !ok {
			remove = append(remove, id)
		}
	}
	for _, id := range desired {
		if _, ok := have[id]; !ok {
			add = append(add, id)
		}
	}
	return remove, add
}
