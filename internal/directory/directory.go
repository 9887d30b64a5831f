// Package directory resolves admin and investor references owned by the
// back office. The pipeline only stores their ids.
package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("directory entry not found")

// Person is the resolved identity of an admin or investor.
type Person struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ResolveAdmin returns an active admin or ErrNotFound.
func (r *Repository) ResolveAdmin(ctx context.Context, id uuid.UUID) (Person, error) {
	return r.resolve(ctx, `
		SELECT id, name, email FROM admins
		WHERE id = $1 AND is_active = true
	`, id)
}

// ResolveInvestor returns an investor or ErrNotFound.
func (r *Repository) ResolveInvestor(ctx context.Context, id uuid.UUID) (Person, error) {
	return r.resolve(ctx, `
		SELECT id, name, email FROM investors
		WHERE id = $1
	`, id)
}

// ListAdmins returns every active admin ordered by name.
func (r *Repository) ListAdmins(ctx context.Context) ([]Person, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email FROM admins
		WHERE is_active = true
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Person, 0)
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, err
		}
		items = append(items, p)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

func (r *Repository) resolve(ctx context.Context, query string, id uuid.UUID) (Person, error) {
	var p Person
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	return p, err
}
