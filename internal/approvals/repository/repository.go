package repository

import (
	"context"
	"errors"

	"dealership_backend/internal/approvals/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("approval group set not found")
	ErrVersionConflict = errors.New("approval group set version conflict")
)

// groupSetID is the single row holding the dealership's group set.
const groupSetID = 1

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetGroupSet loads the current group set with its version.
func (r *Repository) GetGroupSet(ctx context.Context) (domain.GroupSet, error) {
	var set domain.GroupSet
	err := r.pool.QueryRow(ctx, `SELECT version FROM approval_group_sets WHERE id = $1`, groupSetID).Scan(&set.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GroupSet{}, ErrNotFound
	}
	if err != nil {
		return domain.GroupSet{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT name, members
		FROM approval_groups
		WHERE set_id = $1
		ORDER BY position ASC
	`, groupSetID)
	if err != nil {
		return domain.GroupSet{}, err
	}
	defer rows.Close()

	set.Groups = make([]domain.Group, 0)
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.Name, &g.Members); err != nil {
			return domain.GroupSet{}, err
		}
		if g.Members == nil {
			g.Members = []uuid.UUID{}
		}
		set.Groups = append(set.Groups, g)
	}

	if rows.Err() != nil {
		return domain.GroupSet{}, rows.Err()
	}

	return set, nil
}

// SaveGroupSet replaces every group in one transaction when the stored
// version still equals expectedVersion. It returns the set with its new version.
func (r *Repository) SaveGroupSet(ctx context.Context, set domain.GroupSet, expectedVersion int64, actorID uuid.UUID) (domain.GroupSet, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.GroupSet{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current int64
	err = tx.QueryRow(ctx, `SELECT version FROM approval_group_sets WHERE id = $1 FOR UPDATE`, groupSetID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GroupSet{}, ErrNotFound
	}
	if err != nil {
		return domain.GroupSet{}, err
	}
	if current != expectedVersion {
		return domain.GroupSet{}, ErrVersionConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM approval_groups WHERE set_id = $1`, groupSetID); err != nil {
		return domain.GroupSet{}, err
	}

	for i, g := range set.Groups {
		members := g.Members
		if members == nil {
			members = []uuid.UUID{}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO approval_groups (set_id, position, name, members)
			VALUES ($1, $2, $3, $4)
		`, groupSetID, i, g.Name, members); err != nil {
			return domain.GroupSet{}, err
		}
	}

	var next int64
	if err := tx.QueryRow(ctx, `
		UPDATE approval_group_sets
		SET version = version + 1, updated_by = $2, updated_at = now()
		WHERE id = $1
		RETURNING version
	`, groupSetID, actorID).Scan(&next); err != nil {
		return domain.GroupSet{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.GroupSet{}, err
	}

	saved := set.Clone()
	saved.Version = next
	return saved, nil
}
