package service

import (
	"context"
	"io"

	"dealership_backend/internal/leads/csvimport"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/repository"
)

const exportPageSize = 200

// ExportLeads writes every lead matching params in the import template.
// Paging fields on params are ignored.
func (s *Service) ExportLeads(ctx context.Context, params repository.ListParams, w io.Writer) error {
	params.Limit = exportPageSize
	params.Offset = 0

	var all []domain.Lead
	for {
		items, total, err := s.repo.List(ctx, params)
		if err != nil {
			return err
		}
		all = append(all, items...)
		params.Offset += len(items)
		if len(items) == 0 || params.Offset >= total {
			break
		}
	}

	s.log.WithContext(ctx).Info("leads exported", "count", len(all))
	return csvimport.Write(w, all)
}
