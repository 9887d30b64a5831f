// Package readiness scores how far a lead is through the sub-tasks of its
// current pipeline stage. Every function is a pure function of the lead.
package readiness

import (
	"math"

	"dealership_backend/internal/leads/domain"
)

// Mode selects which checklist a score is computed from.
type Mode string

const (
	ModeInspection Mode = "inspection"
	ModeInventory  Mode = "inventory"
)

// StepComplete is reported as the blocking step when nothing is missing.
const StepComplete = "Complete"

// Inspection step names in the order they are evaluated.
const (
	StepPriceAnalysis    = "Price Analysis"
	StepInspectionReport = "Inspection Report"
	StepSubmitted        = "Submitted for Approval"
	StepDualApproval     = "Dual Approval"
)

// Inventory item names in the order they are evaluated.
const (
	ItemDetailing         = "Detailing"
	ItemPhotoshoot        = "Photoshoot"
	ItemPhotoshootEdited  = "Photoshoot Edited"
	ItemMetaAds           = "Meta Ads"
	ItemOnlineAds         = "Online Ads"
	ItemInstagram         = "Instagram"
	ItemFinancialEvidence = "Financial Evidence"
	ItemRegistrationCard  = "Registration Card"
)

// Result is the outcome of scoring a lead.
type Result struct {
	Mode           Mode   `json:"mode"`
	Percentage     int    `json:"percentage"`
	CompletedSteps int    `json:"completedSteps"`
	TotalSteps     int    `json:"totalSteps"`
	BlockingStep   string `json:"blockingStep"`
}

// IsComplete reports whether every step is done.
func (r Result) IsComplete() bool {
	return r.CompletedSteps == r.TotalSteps
}

type check struct {
	name string
	done bool
}

// Score picks the checklist from the lead's pipeline position.
func Score(lead domain.Lead) Result {
	if ModeFor(lead.Status) == ModeInventory {
		return Inventory(lead)
	}
	return Inspection(lead)
}

// ModeFor maps a status to the checklist that gates its next move.
func ModeFor(status domain.Status) Mode {
	switch status {
	case domain.StatusInventory, domain.StatusConsignment, domain.StatusSale, domain.StatusSold:
		return ModeInventory
	default:
		return ModeInspection
	}
}

// Inspection scores the four equally weighted pre-purchase steps.
func Inspection(lead domain.Lead) Result {
	checks := []check{
		{StepPriceAnalysis, lead.Price.HasSellingRange()},
		{StepInspectionReport, lead.HasAttachment(domain.CategoryInspectionReport)},
		{StepSubmitted, lead.Approval.Status.IsSubmitted()},
		{StepDualApproval, lead.Approval.Status == domain.ApprovalApproved},
	}

	completed := 0
	blocking := ""
	for _, c := range checks {
		if c.done {
			completed++
			continue
		}
		if blocking == "" {
			blocking = c.name
		}
	}
	return newResult(ModeInspection, completed, len(checks), blocking)
}

// Inventory scores the operational, financial and document buckets of a
// stocked vehicle. Financial evidence is not required for consignments.
func Inventory(lead domain.Lead) Result {
	ops := lead.Operational
	checks := []check{
		{ItemDetailing, ops.Detailing},
		{ItemPhotoshoot, ops.Photoshoot},
		{ItemPhotoshootEdited, ops.PhotoshootEdited},
		{ItemMetaAds, ops.MetaAds},
		{ItemOnlineAds, ops.OnlineAds},
		{ItemInstagram, ops.Instagram},
	}

	completed := 0
	total := len(checks)
	blocking := ""
	for _, c := range checks {
		if c.done {
			completed++
		} else if blocking == "" {
			blocking = c.name
		}
	}

	if lead.Type != domain.LeadTypeConsignment {
		finTotal, finDone := financialCounts(lead.Financial)
		total += finTotal
		completed += finDone
		if finDone < finTotal && blocking == "" {
			blocking = ItemFinancialEvidence
		}
	}

	total++
	if lead.HasAttachment(domain.CategoryRegistrationCardNew) {
		completed++
	} else if blocking == "" {
		blocking = ItemRegistrationCard
	}

	return newResult(ModeInventory, completed, total, blocking)
}

func financialCounts(f domain.FinancialChecklist) (total, done int) {
	total = f.TotalItems
	if total < 0 {
		total = 0
	}
	done = f.CompletedItems
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	return total, done
}

func newResult(mode Mode, completed, total int, blocking string) Result {
	if blocking == "" {
		blocking = StepComplete
	}
	return Result{
		Mode:           mode,
		Percentage:     percentage(completed, total),
		CompletedSteps: completed,
		TotalSteps:     total,
		BlockingStep:   blocking,
	}
}

// percentage is round(100*completed/total). With large financial buckets an
// open item can still round to 100; guards check IsComplete.
func percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
