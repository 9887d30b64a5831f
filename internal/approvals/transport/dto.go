package transport

import "github.com/google/uuid"

type AssignRequest struct {
	AdminID    uuid.UUID `json:"adminId" validate:"required"`
	GroupIndex *int      `json:"groupIndex" validate:"required,min=0"`
}

type RemoveRequest struct {
	AdminID    uuid.UUID `json:"adminId" validate:"required"`
	GroupIndex *int      `json:"groupIndex" validate:"required,min=0"`
}

type RenameRequest struct {
	GroupIndex *int   `json:"groupIndex" validate:"required,min=0"`
	Name       string `json:"name" validate:"required,notblank,max=80"`
}
