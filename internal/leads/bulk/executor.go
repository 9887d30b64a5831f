// Package bulk applies one action across many leads. Every item is
// isolated: a guard rejection or store failure on one lead is recorded in
// the result and never stops the others.
package bulk

import (
	"context"
	"sort"
	"strings"

	"dealership_backend/internal/events"
	"dealership_backend/internal/leads/csvimport"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/pipeline"
	"dealership_backend/internal/leads/readiness"
	"dealership_backend/platform/apperr"
	"dealership_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the lead storage used by bulk runs.
type Store interface {
	pipeline.Store
	BulkUpdate(ctx context.Context, ids []uuid.UUID, patch domain.LeadPatch) ([]uuid.UUID, error)
	Create(ctx context.Context, lead domain.NewLead) (domain.Lead, error)
}

// Transitioner evaluates guarded status changes.
type Transitioner interface {
	Transition(ctx context.Context, lead domain.Lead, target domain.Status, tc pipeline.TransitionContext) (domain.Lead, error)
}

// Options tunes the worker pool.
type Options struct {
	Concurrency int
	MaxAttempts int
}

type Executor struct {
	store       Store
	machine     Transitioner
	parser      *csvimport.Parser
	eventBus    events.Bus
	log         *logger.Logger
	concurrency int
	maxAttempts int
}

func NewExecutor(store Store, machine Transitioner, parser *csvimport.Parser, eventBus events.Bus, log *logger.Logger, opts Options) *Executor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	return &Executor{
		store:       store,
		machine:     machine,
		parser:      parser,
		eventBus:    eventBus,
		log:         log,
		concurrency: opts.Concurrency,
		maxAttempts: opts.MaxAttempts,
	}
}

// Execute runs req. The returned error is set only for requests rejected
// as a whole before any lead was written.
func (e *Executor) Execute(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	var (
		res Result
		err error
	)
	switch req.Action {
	case ActionStatus:
		res = e.runStatus(ctx, req)
	case ActionPurchase:
		res, err = e.runPurchase(ctx, req)
	case ActionImport:
		res, err = e.runImport(ctx, req)
	case ActionPriority:
		res = e.runPriority(ctx, req)
	}
	if err != nil {
		return Result{}, err
	}

	res.Action = req.Action
	res.JobID = req.JobID
	res.tally()

	e.log.WithContext(ctx).BulkCompleted(string(req.Action), res.Attempted, res.Succeeded, res.Skipped, res.Failed)
	if e.eventBus != nil {
		e.eventBus.Publish(ctx, events.BulkOperationCompleted{
			BaseEvent: events.NewBaseEvent(),
			JobID:     req.JobID,
			Action:    string(req.Action),
			Attempted: res.Attempted,
			Succeeded: res.Succeeded,
			Skipped:   res.Skipped,
			Failed:    res.Failed,
		})
	}
	return res, nil
}

func (e *Executor) runStatus(ctx context.Context, req Request) Result {
	items, work := dedupe(req.LeadIDs)
	target := req.Status

	e.forEach(work, func(i int) {
		id := req.LeadIDs[i]
		before, after, err := pipeline.Apply(ctx, e.store, id, e.maxAttempts, func(lead domain.Lead) (domain.LeadPatch, error) {
			next, err := e.machine.Transition(ctx, lead, target, pipeline.TransitionContext{})
			if err != nil {
				return domain.LeadPatch{}, err
			}
			return domain.LeadPatch{Status: &next.Status}, nil
		})
		if err != nil {
			items[i] = failedItem(id, err)
			return
		}
		items[i] = succeededItem(id)
		e.publishStatusChanged(ctx, req, before, after, false)
	})

	return Result{Items: items}
}

func (e *Executor) runPurchase(ctx context.Context, req Request) (Result, error) {
	items, work := dedupe(req.LeadIDs)

	// Readiness pre-filter: leads below 100% are skipped without an attempt.
	ready := make([]bool, len(req.LeadIDs))
	e.forEach(work, func(i int) {
		id := req.LeadIDs[i]
		lead, err := e.store.Get(ctx, id)
		if err != nil {
			items[i] = failedItem(id, err)
			return
		}
		if r := readiness.Inspection(lead); !r.IsComplete() {
			items[i] = skippedItem(id, ReasonNotReady)
			items[i].BlockingStep = r.BlockingStep
			return
		}
		ready[i] = true
	})

	attempt := make([]int, 0, len(work))
	missing := make([]string, 0)
	for _, i := range work {
		if !ready[i] {
			continue
		}
		if !req.Payments[req.LeadIDs[i]].IsSupplied() {
			missing = append(missing, req.LeadIDs[i].String())
			continue
		}
		attempt = append(attempt, i)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Result{}, apperr.Validation("modeOfPayment and paymentReceivedBy are required for every ready lead").
			WithDetails(map[string]string{"leadIds": strings.Join(missing, ",")})
	}

	e.forEach(attempt, func(i int) {
		id := req.LeadIDs[i]
		pp := req.Payments[id]
		before, after, err := pipeline.Apply(ctx, e.store, id, e.maxAttempts, func(lead domain.Lead) (domain.LeadPatch, error) {
			return PurchasePatch(ctx, e.machine, lead, lead.Type.PurchaseTarget(), pp.ContextFor(lead))
		})
		if err != nil {
			items[i] = failedItem(id, err)
			return
		}
		items[i] = succeededItem(id)
		e.publishStatusChanged(ctx, req, before, after, true)
	})

	return Result{Items: items}, nil
}

// PurchasePatch evaluates the purchase of lead into target and returns the
// write that commits it: the new status, the recorded payment modes and the
// receiver.
func PurchasePatch(ctx context.Context, machine Transitioner, lead domain.Lead, target domain.Status, pc domain.PaymentContext) (domain.LeadPatch, error) {
	next, err := machine.Transition(ctx, lead, target, pipeline.TransitionContext{Payment: &pc})
	if err != nil {
		return domain.LeadPatch{}, err
	}
	allocs := payment.RecordModes(lead.InvestorAllocations, pc)
	receivedBy := pc.PaymentReceivedBy
	return domain.LeadPatch{
		Status:              &next.Status,
		InvestorAllocations: &allocs,
		PaymentReceivedBy:   &receivedBy,
	}, nil
}

func (e *Executor) runImport(ctx context.Context, req Request) (Result, error) {
	rows, err := e.parser.Parse(strings.NewReader(req.CSV))
	if err != nil {
		return Result{}, err
	}

	items := make([]Item, len(rows))
	work := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.Lead == nil {
			items[i] = Item{Line: row.Line, Outcome: OutcomeSkipped, Reason: row.SkipReason}
			continue
		}
		work = append(work, i)
	}

	e.forEach(work, func(i int) {
		row := rows[i]
		if err := ctx.Err(); err != nil {
			msg, code := describe(err)
			items[i] = Item{Line: row.Line, Outcome: OutcomeFailed, Error: msg, Code: code}
			return
		}
		created, err := e.store.Create(ctx, *row.Lead)
		if err != nil {
			msg, code := describe(err)
			items[i] = Item{Line: row.Line, Outcome: OutcomeFailed, Error: msg, Code: code}
			return
		}
		items[i] = Item{LeadID: leadRef(created.ID), Line: row.Line, Outcome: OutcomeSucceeded}
		if e.eventBus != nil {
			e.eventBus.Publish(ctx, events.LeadCreated{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    created.ID,
				Source:    created.Source,
			})
		}
	})

	return Result{Items: items}, nil
}

func (e *Executor) runPriority(ctx context.Context, req Request) Result {
	items, work := dedupe(req.LeadIDs)

	ids := make([]uuid.UUID, 0, len(work))
	for _, i := range work {
		ids = append(ids, req.LeadIDs[i])
	}

	priority := req.Priority
	updated, err := e.store.BulkUpdate(ctx, ids, domain.LeadPatch{Priority: &priority})
	if err != nil {
		for _, i := range work {
			items[i] = failedItem(req.LeadIDs[i], err)
		}
		return Result{Items: items}
	}

	done := make(map[uuid.UUID]struct{}, len(updated))
	for _, id := range updated {
		done[id] = struct{}{}
	}
	for _, i := range work {
		id := req.LeadIDs[i]
		if _, ok := done[id]; ok {
			items[i] = succeededItem(id)
		} else {
			items[i] = failedItem(id, domain.ErrNotFound)
		}
	}
	return Result{Items: items}
}

// forEach runs fn for every index on the bounded worker pool. fn records
// its own outcome; errors never cancel sibling items.
func (e *Executor) forEach(indices []int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, i := range indices {
		i := i // per-iteration copy; module targets go 1.21 loop semantics
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Executor) publishStatusChanged(ctx context.Context, req Request, before, after domain.Lead, purchase bool) {
	if e.eventBus == nil {
		return
	}
	e.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    after.ID,
		From:      string(before.Status),
		To:        string(after.Status),
		Purchase:  purchase,
		ActorID:   req.ActorID,
		BulkJobID: req.JobID,
	})
}

// dedupe pre-marks repeated ids as skipped and returns the indices of the
// first occurrences.
func dedupe(ids []uuid.UUID) ([]Item, []int) {
	items := make([]Item, len(ids))
	work := make([]int, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for i, id := range ids {
		if _, dup := seen[id]; dup {
			items[i] = skippedItem(id, ReasonDuplicate)
			continue
		}
		seen[id] = struct{}{}
		work = append(work, i)
	}
	return items, work
}
