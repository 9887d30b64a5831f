package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dealership_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const leadColumns = `
	l.id, l.type, l.status, l.version,
	l.vehicle_make, l.vehicle_model, l.vehicle_year, l.vehicle_mileage, l.vehicle_color, l.vehicle_trim,
	l.vehicle_region, l.vehicle_asking_price::text, l.vehicle_vin,
	l.contact_full_name, l.contact_phone, l.contact_email,
	l.min_selling_price::text, l.max_selling_price::text, l.purchased_final_price::text,
	l.approval, l.investor_allocations, l.payment_received_by, l.job_costing,
	l.operational_checklist, l.financial_checklist,
	l.source, l.priority, l.created_at, l.updated_at`

// Get returns the lead with its attachments.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return r.get(ctx, r.pool, id)
}

func (r *Repository) get(ctx context.Context, q querier, id uuid.UUID) (domain.Lead, error) {
	lead, err := scanLead(q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads l WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}

	byLead, err := r.attachmentsFor(ctx, q, []uuid.UUID{id})
	if err != nil {
		return domain.Lead{}, err
	}
	lead.Attachments = byLead[id]
	return lead, nil
}

// ListParams filters the lead list. Zero values do not filter.
type ListParams struct {
	Status   *domain.Status
	Type     *domain.LeadType
	Priority *domain.Priority
	Search   string
	Limit    int
	Offset   int
}

// List returns one page of leads, newest first, and the total match count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	whereClause, args, argIdx := buildListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads l WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, params.Offset)

	query := fmt.Sprintf(`SELECT %s FROM leads l WHERE %s ORDER BY l.created_at DESC, l.id LIMIT $%d OFFSET $%d`,
		leadColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
		ids = append(ids, lead.ID)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	byLead, err := r.attachmentsFor(ctx, r.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range leads {
		leads[i].Attachments = byLead[leads[i].ID]
	}

	return leads, total, nil
}

func buildListWhere(params ListParams) (string, []any, int) {
	whereClauses := []string{"TRUE"}
	args := []any{}
	argIdx := 1

	addEquals := func(column string, value any) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Status != nil {
		addEquals("l.status", string(*params.Status))
	}
	if params.Type != nil {
		addEquals("l.type", string(*params.Type))
	}
	if params.Priority != nil {
		addEquals("l.priority", string(*params.Priority))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.contact_full_name ILIKE $%d OR l.contact_phone ILIKE $%d OR l.vehicle_make ILIKE $%d OR l.vehicle_model ILIKE $%d OR l.vehicle_vin ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+search+"%")
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

// Create inserts an intake lead at version 1.
func (r *Repository) Create(ctx context.Context, in domain.NewLead) (domain.Lead, error) {
	emptyApproval, err := json.Marshal(domain.Approval{Status: domain.ApprovalNone, Approvers: []uuid.UUID{}})
	if err != nil {
		return domain.Lead{}, err
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			type, status, version,
			vehicle_make, vehicle_model, vehicle_year, vehicle_mileage, vehicle_color, vehicle_trim,
			vehicle_region, vehicle_asking_price, vehicle_vin,
			contact_full_name, contact_phone, contact_email,
			approval, source, priority
		)
		VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8, $9, $10::numeric, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`,
		string(in.Type), string(in.Status),
		in.Vehicle.Make, in.Vehicle.Model, in.Vehicle.Year, in.Vehicle.Mileage, in.Vehicle.Color, in.Vehicle.Trim,
		in.Vehicle.Region, in.Vehicle.AskingPrice.String(), in.Vehicle.VIN,
		in.Contact.FullName, in.Contact.Phone, in.Contact.Email,
		emptyApproval, in.Source, string(in.Priority),
	).Scan(&id)
	if err != nil {
		return domain.Lead{}, err
	}

	return r.Get(ctx, id)
}

// Update writes patch when the stored version equals expectedVersion and
// bumps the version. A stale version yields domain.ErrVersionConflict.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch domain.LeadPatch, expectedVersion int64) (domain.Lead, error) {
	setClauses, args, err := buildPatchSet(patch, 3)
	if err != nil {
		return domain.Lead{}, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	setClauses = append(setClauses, "version = version + 1", "updated_at = now()")
	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $1 AND version = $2", strings.Join(setClauses, ", "))

	tag, err := tx.Exec(ctx, query, append([]any{id, expectedVersion}, args...)...)
	if err != nil {
		return domain.Lead{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
			return domain.Lead{}, err
		}
		if !exists {
			return domain.Lead{}, domain.ErrNotFound
		}
		return domain.Lead{}, domain.ErrVersionConflict
	}

	updated, err := r.get(ctx, tx, id)
	if err != nil {
		return domain.Lead{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return updated, nil
}

// BulkUpdate writes patch to every existing id without a version check and
// returns the ids that were updated.
func (r *Repository) BulkUpdate(ctx context.Context, ids []uuid.UUID, patch domain.LeadPatch) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return []uuid.UUID{}, nil
	}
	setClauses, args, err := buildPatchSet(patch, 2)
	if err != nil {
		return nil, err
	}
	setClauses = append(setClauses, "version = version + 1", "updated_at = now()")
	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = ANY($1) RETURNING id", strings.Join(setClauses, ", "))

	rows, err := r.pool.Query(ctx, query, append([]any{ids}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updated := make([]uuid.UUID, 0, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return updated, nil
}

// buildPatchSet renders the SET clauses for patch, numbering placeholders
// from firstArg.
func buildPatchSet(patch domain.LeadPatch, firstArg int) ([]string, []any, error) {
	setClauses := make([]string, 0, 12)
	args := make([]any, 0, 12)
	argIdx := firstArg

	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}
	setNumeric := func(column string, value *decimal.Decimal) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d::numeric", column, argIdx))
		args = append(args, numericArg(value))
		argIdx++
	}
	setJSON := func(column string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		set(column, raw)
		return nil
	}

	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.PaymentReceivedBy != nil {
		set("payment_received_by", *patch.PaymentReceivedBy)
	}
	if patch.Price != nil {
		setNumeric("min_selling_price", patch.Price.MinSellingPrice)
		setNumeric("max_selling_price", patch.Price.MaxSellingPrice)
		setNumeric("purchased_final_price", patch.Price.PurchasedFinalPrice)
	}
	if patch.Approval != nil {
		approval := *patch.Approval
		if approval.Approvers == nil {
			approval.Approvers = []uuid.UUID{}
		}
		if err := setJSON("approval", approval); err != nil {
			return nil, nil, err
		}
	}
	if patch.InvestorAllocations != nil {
		allocs := *patch.InvestorAllocations
		if allocs == nil {
			allocs = []domain.InvestorAllocation{}
		}
		if err := setJSON("investor_allocations", allocs); err != nil {
			return nil, nil, err
		}
	}
	if patch.JobCosting != nil {
		if err := setJSON("job_costing", *patch.JobCosting); err != nil {
			return nil, nil, err
		}
	}
	if patch.Operational != nil {
		if err := setJSON("operational_checklist", *patch.Operational); err != nil {
			return nil, nil, err
		}
	}
	if patch.Financial != nil {
		if err := setJSON("financial_checklist", *patch.Financial); err != nil {
			return nil, nil, err
		}
	}

	return setClauses, args, nil
}

func numericArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	var leadType, status, priority, askingPrice string
	var minPrice, maxPrice, finalPrice *string
	var color, trim, region, vin, phone, email, src *string
	var year *int
	var approvalRaw, allocationsRaw, jobCostingRaw, opsRaw, financialRaw []byte

	err := row.Scan(
		&lead.ID, &leadType, &status, &lead.Version,
		&lead.Vehicle.Make, &lead.Vehicle.Model, &year, &lead.Vehicle.Mileage, &color, &trim,
		&region, &askingPrice, &vin,
		&lead.Contact.FullName, &phone, &email,
		&minPrice, &maxPrice, &finalPrice,
		&approvalRaw, &allocationsRaw, &lead.PaymentReceivedBy, &jobCostingRaw,
		&opsRaw, &financialRaw,
		&src, &priority, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	lead.Type = domain.LeadType(leadType)
	lead.Status = domain.Status(status)
	lead.Priority = domain.Priority(priority)
	if year != nil {
		lead.Vehicle.Year = *year
	}
	lead.Vehicle.Color = deref(color)
	lead.Vehicle.Trim = deref(trim)
	lead.Vehicle.Region = deref(region)
	lead.Vehicle.VIN = deref(vin)
	lead.Contact.Phone = deref(phone)
	lead.Contact.Email = deref(email)
	lead.Source = deref(src)

	if lead.Vehicle.AskingPrice, err = decimal.NewFromString(askingPrice); err != nil {
		return domain.Lead{}, err
	}
	if lead.Price.MinSellingPrice, err = parseNumeric(minPrice); err != nil {
		return domain.Lead{}, err
	}
	if lead.Price.MaxSellingPrice, err = parseNumeric(maxPrice); err != nil {
		return domain.Lead{}, err
	}
	if lead.Price.PurchasedFinalPrice, err = parseNumeric(finalPrice); err != nil {
		return domain.Lead{}, err
	}

	for _, doc := range []struct {
		raw []byte
		dst any
	}{
		{approvalRaw, &lead.Approval},
		{allocationsRaw, &lead.InvestorAllocations},
		{jobCostingRaw, &lead.JobCosting},
		{opsRaw, &lead.Operational},
		{financialRaw, &lead.Financial},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return domain.Lead{}, fmt.Errorf("decode lead %s: %w", lead.ID, err)
		}
	}
	if lead.Approval.Status, err = domain.ParseApprovalStatus(string(lead.Approval.Status)); err != nil {
		return domain.Lead{}, fmt.Errorf("decode lead %s: %w", lead.ID, err)
	}

	return lead, nil
}

func parseNumeric(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// touch bumps the version so guards evaluated before the change are retried.
func touch(ctx context.Context, tx pgx.Tx, leadID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `UPDATE leads SET version = version + 1, updated_at = now() WHERE id = $1`, leadID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
