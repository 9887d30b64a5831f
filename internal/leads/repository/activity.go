package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity is one entry of a lead's audit trail.
type Activity struct {
	ID        uuid.UUID      `json:"id"`
	LeadID    uuid.UUID      `json:"leadId"`
	ActorID   *uuid.UUID     `json:"actorId,omitempty"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type ActivityParams struct {
	LeadID   uuid.UUID
	ActorID  *uuid.UUID
	Action   string
	Metadata map[string]any
}

func (r *Repository) AddActivity(ctx context.Context, params ActivityParams) error {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, actor_id, action, metadata)
		VALUES ($1, $2, $3, $4)
	`, params.LeadID, params.ActorID, params.Action, metadata)
	return err
}

// ListActivity returns the trail of a lead, newest first.
func (r *Repository) ListActivity(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, actor_id, action, metadata, created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var item Activity
		var metadata []byte
		if err := rows.Scan(&item.ID, &item.LeadID, &item.ActorID, &item.Action, &metadata, &item.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
				return nil, err
			}
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}
