package handler

import (
	"net/http"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/repository"
	"dealership_backend/internal/leads/service"
	"dealership_backend/internal/leads/transport"
	"dealership_backend/platform/httpkit"
	"dealership_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnauthorized     = "unauthorized"

	defaultPageSize = 50
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/export", h.Export)
	rg.POST("/bulk", h.Bulk)
	rg.POST("/bulk/import", h.BulkImport)
	rg.GET("/bulk/jobs/:jobId", h.BulkJob)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/readiness", h.Readiness)
	rg.GET("/:id/transitions/:status", h.CanTransition)
	rg.POST("/:id/transition", h.Transition)
	rg.POST("/:id/purchase", h.Purchase)
	rg.POST("/:id/payment/validate", h.ValidatePayment)
	rg.PUT("/:id/allocations", h.SetAllocations)
	rg.PATCH("/:id/price", h.UpdatePrice)
	rg.PATCH("/:id/checklists", h.UpdateChecklists)
	rg.PATCH("/:id/job-costing", h.UpdateJobCosting)
	rg.POST("/:id/attachments", h.UploadAttachment)
	rg.GET("/:id/activity", h.Activity)
	// Approval workflow
	rg.POST("/:id/approval/submit", h.SubmitForApproval)
	rg.POST("/:id/approval/approve", httpkit.RequireRole(httpkit.RoleAdmin), h.Approve)
	rg.GET("/:id/approval/quorum", h.Quorum)
}

func (h *Handler) List(c *gin.Context) {
	var q transport.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.List(c.Request.Context(), listParams(q))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func listParams(q transport.ListQuery) repository.ListParams {
	params := repository.ListParams{Search: q.Search, Limit: q.PageSize}
	if params.Limit == 0 {
		params.Limit = defaultPageSize
	}
	if q.Page > 1 {
		params.Offset = (q.Page - 1) * params.Limit
	}
	if s, err := domain.ParseStatus(q.Status); err == nil {
		params.Status = &s
	}
	if t, err := domain.ParseLeadType(q.Type); err == nil {
		params.Type = &t
	}
	if p, err := domain.ParsePriority(q.Priority); err == nil {
		params.Priority = &p
	}
	return params
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), req.NewLead())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Readiness(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	result, err := h.svc.ScoreReadiness(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CanTransition answers 200 with allowed=true, or the guard error that
// would reject the move.
func (h *Handler) CanTransition(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	target, err := domain.ParseStatus(c.Param("status"))
	if httpkit.HandleError(c, err) {
		return
	}

	if err := h.svc.CanTransition(c.Request.Context(), id, target); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"allowed": true})
}

func (h *Handler) Transition(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	target, err := domain.ParseStatus(req.Status)
	if httpkit.HandleError(c, err) {
		return
	}

	var pd *payment.Details
	if req.Payment != nil {
		d := req.Payment.Details()
		pd = &d
	}
	lead, err := h.svc.Transition(c.Request.Context(), actor.UserID, id, target, pd)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Purchase(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.PaymentRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	lead, err := h.svc.Purchase(c.Request.Context(), actor.UserID, id, req.Details())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) ValidatePayment(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.PaymentRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.svc.ValidateInvestorPayment(c.Request.Context(), id, req.Details()); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"valid": true})
}

func (h *Handler) SetAllocations(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.AllocationsRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.SetAllocations(c.Request.Context(), id, req.Inputs())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdatePrice(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.PriceRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.UpdatePrice(c.Request.Context(), id, domain.PriceAnalysis{
		MinSellingPrice:     req.MinSellingPrice,
		MaxSellingPrice:     req.MaxSellingPrice,
		PurchasedFinalPrice: req.PurchasedFinalPrice,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateChecklists(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.ChecklistsRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.UpdateChecklists(c.Request.Context(), id, req.Operational, req.Financial)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) UpdateJobCosting(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	var req transport.JobCostingRequest
	if !h.bind(c, &req) {
		return
	}

	lead, err := h.svc.UpdateJobCosting(c.Request.Context(), id, domain.JobCosting{
		Transfer:   req.Transfer,
		Detailing:  req.Detailing,
		Commission: req.Commission,
		Recovery:   req.Recovery,
		Inspection: req.Inspection,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Activity(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	items, err := h.svc.Activity(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

func (h *Handler) SubmitForApproval(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	lead, err := h.svc.SubmitForApproval(c.Request.Context(), actor.UserID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	outcome, err := h.svc.RecordApproval(c.Request.Context(), actor.UserID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, outcome)
}

func (h *Handler) Quorum(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	quorum, err := h.svc.HasApprovalQuorum(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"quorum": quorum})
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func mustActor(c *gin.Context) (httpkit.Actor, bool) {
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, msgUnauthorized, nil)
		return httpkit.Actor{}, false
	}
	return actor, true
}
