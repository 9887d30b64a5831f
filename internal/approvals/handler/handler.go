package handler

import (
	"net/http"

	"dealership_backend/internal/approvals/service"
	"dealership_backend/internal/approvals/transport"
	"dealership_backend/platform/httpkit"
	"dealership_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/assign", h.Assign)
	rg.POST("/remove", h.Remove)
	rg.POST("/rename", h.Rename)
}

func (h *Handler) List(c *gin.Context) {
	overview, err := h.svc.Groups(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, overview)
}

func (h *Handler) Assign(c *gin.Context) {
	var req transport.AssignRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	set, err := h.svc.Assign(c.Request.Context(), actor.UserID, req.AdminID, *req.GroupIndex)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, set)
}

func (h *Handler) Remove(c *gin.Context) {
	var req transport.RemoveRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	set, err := h.svc.Remove(c.Request.Context(), actor.UserID, req.AdminID, *req.GroupIndex)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, set)
}

func (h *Handler) Rename(c *gin.Context) {
	var req transport.RenameRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := httpkit.ActorFromContext(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	set, err := h.svc.Rename(c.Request.Context(), actor.UserID, *req.GroupIndex, req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, set)
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
