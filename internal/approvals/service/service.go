// Package service manages the approval groups: atomic commands over the
// whole group set and the cross-group quorum check used by lead approvals.
package service

import (
	"context"
	"errors"

	"dealership_backend/internal/approvals/domain"
	"dealership_backend/internal/approvals/repository"
	"dealership_backend/internal/directory"
	"dealership_backend/internal/events"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/logger"

	"github.com/google/uuid"
)

const maxCommitAttempts = 3

// Repository is the persistence the service needs.
type Repository interface {
	GetGroupSet(ctx context.Context) (domain.GroupSet, error)
	SaveGroupSet(ctx context.Context, set domain.GroupSet, expectedVersion int64, actorID uuid.UUID) (domain.GroupSet, error)
}

// AdminDirectory resolves admin references.
type AdminDirectory interface {
	ResolveAdmin(ctx context.Context, id uuid.UUID) (directory.Person, error)
	ListAdmins(ctx context.Context) ([]directory.Person, error)
}

// Overview is the group set plus the admins not assigned to any group.
type Overview struct {
	Set        domain.GroupSet    `json:"set"`
	Unassigned []directory.Person `json:"unassigned"`
	MinGroups  int                `json:"minGroups"`
}

type Service struct {
	repo      Repository
	admins    AdminDirectory
	eventBus  events.Bus
	minGroups int
	log       *logger.Logger
}

func New(repo Repository, admins AdminDirectory, eventBus events.Bus, minGroups int, log *logger.Logger) *Service {
	if minGroups < 1 {
		minGroups = 2
	}
	return &Service{repo: repo, admins: admins, eventBus: eventBus, minGroups: minGroups, log: log}
}

// Groups returns the current set and the admin pool.
func (s *Service) Groups(ctx context.Context) (Overview, error) {
	set, err := s.load(ctx)
	if err != nil {
		return Overview{}, err
	}

	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		return Overview{}, err
	}

	assigned := make(map[uuid.UUID]struct{})
	for _, m := range set.Members() {
		assigned[m] = struct{}{}
	}
	unassigned := make([]directory.Person, 0, len(admins))
	for _, a := range admins {
		if _, ok := assigned[a.ID]; !ok {
			unassigned = append(unassigned, a)
		}
	}

	return Overview{Set: set, Unassigned: unassigned, MinGroups: s.minGroups}, nil
}

// Assign moves adminID into group idx and commits the whole set.
func (s *Service) Assign(ctx context.Context, actorID, adminID uuid.UUID, idx int) (domain.GroupSet, error) {
	if _, err := s.admins.ResolveAdmin(ctx, adminID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return domain.GroupSet{}, apperr.NotFound("admin not found")
		}
		return domain.GroupSet{}, err
	}

	return s.commit(ctx, actorID, "assign", func(set *domain.GroupSet) (bool, error) {
		return set.Assign(adminID, idx)
	})
}

// Remove takes adminID out of group idx and commits the whole set.
func (s *Service) Remove(ctx context.Context, actorID, adminID uuid.UUID, idx int) (domain.GroupSet, error) {
	return s.commit(ctx, actorID, "remove", func(set *domain.GroupSet) (bool, error) {
		return set.Remove(adminID, idx)
	})
}

// Rename renames group idx and commits the whole set.
func (s *Service) Rename(ctx context.Context, actorID uuid.UUID, idx int, name string) (domain.GroupSet, error) {
	return s.commit(ctx, actorID, "rename", func(set *domain.GroupSet) (bool, error) {
		return set.Rename(idx, name)
	})
}

// HasQuorum reports whether approvers cover the configured number of groups.
func (s *Service) HasQuorum(ctx context.Context, approvers []uuid.UUID) (bool, error) {
	set, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return set.HasQuorum(approvers, s.minGroups), nil
}

func (s *Service) load(ctx context.Context) (domain.GroupSet, error) {
	set, err := s.repo.GetGroupSet(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.GroupSet{}, apperr.NotFound("approval groups are not configured")
	}
	return set, err
}

// commit runs one read-modify-write of the group set. Stale members are
// dropped and the invariants re-checked before every write.
func (s *Service) commit(ctx context.Context, actorID uuid.UUID, command string, mutate func(*domain.GroupSet) (bool, error)) (domain.GroupSet, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.load(ctx)
		if err != nil {
			return domain.GroupSet{}, err
		}

		next := current.Clone()
		changed, err := mutate(&next)
		if err != nil {
			return domain.GroupSet{}, err
		}
		if !changed {
			return current, nil
		}

		dropped, err := s.dropStaleMembers(ctx, &next)
		if err != nil {
			return domain.GroupSet{}, err
		}
		if err := next.Validate(); err != nil {
			return domain.GroupSet{}, err
		}

		saved, err := s.repo.SaveGroupSet(ctx, next, current.Version, actorID)
		if errors.Is(err, repository.ErrVersionConflict) {
			if attempt < maxCommitAttempts {
				continue
			}
			return domain.GroupSet{}, apperr.Conflict("approval groups were changed concurrently, reload and retry").WithCode("version_conflict")
		}
		if err != nil {
			return domain.GroupSet{}, err
		}

		if dropped > 0 {
			s.log.Info("dropped stale approval group members", "dropped", dropped, "command", command)
		}
		if s.eventBus != nil {
			s.eventBus.Publish(ctx, events.ApprovalGroupsUpdated{
				BaseEvent: events.NewBaseEvent(),
				Version:   saved.Version,
				ActorID:   actorID,
				Command:   command,
				Dropped:   dropped,
			})
		}
		return saved, nil
	}
}

func (s *Service) dropStaleMembers(ctx context.Context, set *domain.GroupSet) (int, error) {
	known := make(map[uuid.UUID]bool)
	for _, id := range set.Members() {
		if _, seen := known[id]; seen {
			continue
		}
		_, err := s.admins.ResolveAdmin(ctx, id)
		switch {
		case err == nil:
			known[id] = true
		case errors.Is(err, directory.ErrNotFound):
			known[id] = false
		default:
			return 0, err
		}
	}
	return set.RetainMembers(func(id uuid.UUID) bool { return known[id] }), nil
}
