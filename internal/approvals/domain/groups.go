// Package domain models the dual sign-off groups. Each group holds at most
// two admins and an admin sits in at most one group.
package domain

import (
	"fmt"
	"strings"

	"dealership_backend/platform/apperr"

	"github.com/google/uuid"
)

// MaxMembers is the capacity of one approval group.
const MaxMembers = 2

// Group is one sign-off group.
type Group struct {
	Name    string      `json:"name"`
	Members []uuid.UUID `json:"members"`
}

// Contains reports whether admin is a member.
func (g Group) Contains(admin uuid.UUID) bool {
	for _, m := range g.Members {
		if m == admin {
			return true
		}
	}
	return false
}

// IsFull reports whether the group reached capacity.
func (g Group) IsFull() bool {
	return len(g.Members) >= MaxMembers
}

// GroupSet is the whole collection of groups, committed as a unit.
type GroupSet struct {
	Groups  []Group `json:"groups"`
	Version int64   `json:"version"`
}

// Clone returns a deep copy.
func (s GroupSet) Clone() GroupSet {
	out := GroupSet{Version: s.Version, Groups: make([]Group, len(s.Groups))}
	for i, g := range s.Groups {
		out.Groups[i] = Group{Name: g.Name, Members: append([]uuid.UUID(nil), g.Members...)}
	}
	return out
}

func (s GroupSet) checkIndex(idx int) error {
	if idx < 0 || idx >= len(s.Groups) {
		return apperr.Validation(fmt.Sprintf("group index %d is out of range", idx))
	}
	return nil
}

// Assign moves admin into group idx. It reports false without changing the
// set when the group is full or already holds the admin.
func (s *GroupSet) Assign(admin uuid.UUID, idx int) (bool, error) {
	if err := s.checkIndex(idx); err != nil {
		return false, err
	}
	if admin == uuid.Nil {
		return false, apperr.Validation("adminId is required")
	}

	target := s.Groups[idx]
	if target.IsFull() || target.Contains(admin) {
		return false, nil
	}

	for i := range s.Groups {
		s.Groups[i].Members = without(s.Groups[i].Members, admin)
	}
	s.Groups[idx].Members = append(s.Groups[idx].Members, admin)
	return true, nil
}

// Remove takes admin out of group idx only. It reports whether anything changed.
func (s *GroupSet) Remove(admin uuid.UUID, idx int) (bool, error) {
	if err := s.checkIndex(idx); err != nil {
		return false, err
	}
	if !s.Groups[idx].Contains(admin) {
		return false, nil
	}
	s.Groups[idx].Members = without(s.Groups[idx].Members, admin)
	return true, nil
}

// Rename sets the name of group idx.
func (s *GroupSet) Rename(idx int, name string) (bool, error) {
	if err := s.checkIndex(idx); err != nil {
		return false, err
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, apperr.Validation("group name is required")
	}
	if s.Groups[idx].Name == trimmed {
		return false, nil
	}
	s.Groups[idx].Name = trimmed
	return true, nil
}

// RetainMembers drops every member for which keep returns false and
// reports how many were dropped.
func (s *GroupSet) RetainMembers(keep func(uuid.UUID) bool) int {
	dropped := 0
	for i := range s.Groups {
		kept := s.Groups[i].Members[:0:0]
		for _, m := range s.Groups[i].Members {
			if keep(m) {
				kept = append(kept, m)
			} else {
				dropped++
			}
		}
		s.Groups[i].Members = kept
	}
	return dropped
}

// Members returns every admin across all groups.
func (s GroupSet) Members() []uuid.UUID {
	out := make([]uuid.UUID, 0)
	for _, g := range s.Groups {
		out = append(out, g.Members...)
	}
	return out
}

// HasQuorum reports whether at least minGroups distinct non-empty groups
// each have one of their members among approvers.
func (s GroupSet) HasQuorum(approvers []uuid.UUID, minGroups int) bool {
	if minGroups < 1 {
		minGroups = 1
	}

	signed := make(map[uuid.UUID]struct{}, len(approvers))
	for _, a := range approvers {
		signed[a] = struct{}{}
	}

	contributing := 0
	for _, g := range s.Groups {
		for _, m := range g.Members {
			if _, ok := signed[m]; ok {
				contributing++
				break
			}
		}
	}
	return contributing >= minGroups
}

// Validate checks the capacity and single-membership invariants.
func (s GroupSet) Validate() error {
	seen := make(map[uuid.UUID]int)
	for i, g := range s.Groups {
		if len(g.Members) > MaxMembers {
			return apperr.Validation(fmt.Sprintf("group %q has %d members, at most %d allowed", g.Name, len(g.Members), MaxMembers))
		}
		for _, m := range g.Members {
			if prev, ok := seen[m]; ok {
				return apperr.Validation(fmt.Sprintf("admin %s is in groups %d and %d", m, prev, i))
			}
			seen[m] = i
		}
	}
	return nil
}

func without(members []uuid.UUID, admin uuid.UUID) []uuid.UUID {
	out := members[:0:0]
	for _, m := range members {
		if m != admin {
			out = append(out, m)
		}
	}
	return out
}
