package handler

import (
	"bytes"
	"net/http"

	"dealership_backend/internal/leads/transport"
	"dealership_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const exportFilename = "leads.csv"

// Export streams the filtered leads as CSV in the bulk import template.
func (h *Handler) Export(c *gin.Context) {
	var q transport.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportLeads(c.Request.Context(), listParams(q), &buf); httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+exportFilename+"\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
