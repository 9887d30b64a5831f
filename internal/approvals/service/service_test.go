package service

import (
	"context"
	"errors"
	"testing"

	"dealership_backend/internal/approvals/domain"
	"dealership_backend/internal/approvals/repository"
	"dealership_backend/internal/directory"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/logger"

	"github.com/google/uuid"
)

type memRepo struct {
	set       domain.GroupSet
	saves     int
	conflicts int
}

func (r *memRepo) GetGroupSet(context.Context) (domain.GroupSet, error) {
	return r.set.Clone(), nil
}

func (r *memRepo) SaveGroupSet(_ context.Context, set domain.GroupSet, expected int64, _ uuid.UUID) (domain.GroupSet, error) {
	if r.conflicts > 0 {
		r.conflicts--
		r.set.Version++
		return domain.GroupSet{}, repository.ErrVersionConflict
	}
	if expected != r.set.Version {
		return domain.GroupSet{}, repository.ErrVersionConflict
	}
	r.saves++
	r.set = set.Clone()
	r.set.Version = expected + 1
	return r.set.Clone(), nil
}

type memAdmins struct {
	known map[uuid.UUID]bool
	err   error
}

func (a memAdmins) ResolveAdmin(_ context.Context, id uuid.UUID) (directory.Person, error) {
	if a.err != nil {
		return directory.Person{}, a.err
	}
	if !a.known[id] {
		return directory.Person{}, directory.ErrNotFound
	}
	return directory.Person{ID: id}, nil
}

func (a memAdmins) ListAdmins(context.Context) ([]directory.Person, error) {
	out := make([]directory.Person, 0, len(a.known))
	for id, ok := range a.known {
		if ok {
			out = append(out, directory.Person{ID: id})
		}
	}
	return out, nil
}

func newSet(a, b []uuid.UUID) domain.GroupSet {
	return domain.GroupSet{Version: 1, Groups: []domain.Group{{Name: "Group A", Members: a}, {Name: "Group B", Members: b}}}
}

func TestAssignCommitsWholeSetAndDropsStaleMembers(t *testing.T) {
	x, stale, peer := uuid.New(), uuid.New(), uuid.New()
	repo := &memRepo{set: newSet([]uuid.UUID{x, stale}, []uuid.UUID{peer})}
	admins := memAdmins{known: map[uuid.UUID]bool{x: true, peer: true}}
	svc := New(repo, admins, nil, 2, logger.Discard())

	saved, err := svc.Assign(context.Background(), uuid.New(), x, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("expected one atomic save, got %d", repo.saves)
	}
	if saved.Groups[0].Contains(x) || !saved.Groups[1].Contains(x) {
		t.Fatalf("expected admin moved to group B, got %+v", saved.Groups)
	}
	if saved.Groups[0].Contains(stale) {
		t.Fatal("stale admin should have been dropped")
	}
	if saved.Version != 2 {
		t.Fatalf("expected version 2, got %d", saved.Version)
	}
}

func TestAssignNoOpDoesNotWrite(t *testing.T) {
	a, b1, b2 := uuid.New(), uuid.New(), uuid.New()
	repo := &memRepo{set: newSet([]uuid.UUID{a}, []uuid.UUID{b1, b2})}
	admins := memAdmins{known: map[uuid.UUID]bool{a: true, b1: true, b2: true}}

	got, err := New(repo, admins, nil, 2, logger.Discard()).Assign(context.Background(), uuid.New(), a, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("expected no write, got %d", repo.saves)
	}
	if !got.Groups[0].Contains(a) {
		t.Fatal("admin should remain in group A")
	}
}

func TestAssignUnknownAdminIsNotFound(t *testing.T) {
	repo := &memRepo{set: newSet(nil, nil)}
	_, err := New(repo, memAdmins{}, nil, 2, logger.Discard()).Assign(context.Background(), uuid.New(), uuid.New(), 0)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCommitRetriesVersionConflicts(t *testing.T) {
	a := uuid.New()
	repo := &memRepo{set: newSet(nil, nil), conflicts: 2}
	admins := memAdmins{known: map[uuid.UUID]bool{a: true}}

	if _, err := New(repo, admins, nil, 2, logger.Discard()).Assign(context.Background(), uuid.New(), a, 0); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if repo.saves != 1 {
		t.Fatalf("expected one save, got %d", repo.saves)
	}

	repo.conflicts = maxCommitAttempts
	_, err := New(repo, admins, nil, 2, logger.Discard()).Rename(context.Background(), uuid.New(), 0, "Finance")
	if apperr.CodeOf(err) != "version_conflict" {
		t.Fatalf("expected version_conflict, got %v", err)
	}
}

func TestDirectoryFailureAbortsCommit(t *testing.T) {
	a := uuid.New()
	repo := &memRepo{set: newSet([]uuid.UUID{a}, nil)}
	boom := errors.New("directory down")

	_, err := New(repo, memAdmins{err: boom}, nil, 2, logger.Discard()).Remove(context.Background(), uuid.New(), a, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected directory error, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatal("nothing should be written when the directory fails")
	}
}

func TestHasQuorumUsesConfiguredMinimum(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	set := newSet([]uuid.UUID{a}, []uuid.UUID{b})
	set.Groups = append(set.Groups, domain.Group{Name: "Group C", Members: []uuid.UUID{c}})
	repo := &memRepo{set: set}

	two := New(repo, memAdmins{}, nil, 2, logger.Discard())
	if ok, _ := two.HasQuorum(context.Background(), []uuid.UUID{a, b}); !ok {
		t.Fatal("expected quorum with two groups")
	}

	three := New(repo, memAdmins{}, nil, 3, logger.Discard())
	if ok, _ := three.HasQuorum(context.Background(), []uuid.UUID{a, b}); ok {
		t.Fatal("expected no quorum when three groups are required")
	}
}

func TestGroupsListsUnassignedAdmins(t *testing.T) {
	a, free := uuid.New(), uuid.New()
	repo := &memRepo{set: newSet([]uuid.UUID{a}, nil)}
	admins := memAdmins{known: map[uuid.UUID]bool{a: true, free: true}}

	overview, err := New(repo, admins, nil, 2, logger.Discard()).Groups(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overview.Unassigned) != 1 || overview.Unassigned[0].ID != free {
		t.Fatalf("expected only the free admin, got %+v", overview.Unassigned)
	}
}
