package handler

import (
	"io"
	"net/http"
	"strconv"

	"dealership_backend/internal/leads/bulk"
	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/payment"
	"dealership_backend/internal/leads/transport"
	"dealership_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxImportBytes bounds an uploaded CSV document.
const maxImportBytes = 5 << 20

// Bulk runs a status, purchase or priority action over many leads. With
// ?async=true the request is queued and 202 carries the job.
func (h *Handler) Bulk(c *gin.Context) {
	var req transport.BulkRequest
	if !h.bind(c, &req) {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	breq := bulk.Request{
		Action:   bulk.Action(req.Action),
		LeadIDs:  req.LeadIDs,
		Status:   domain.Status(req.Status),
		Priority: domain.Priority(req.Priority),
	}
	if len(req.Payments) > 0 {
		breq.Payments = make(map[uuid.UUID]payment.Details, len(req.Payments))
		for id, p := range req.Payments {
			breq.Payments[id] = p.Details()
		}
	}
	h.runBulk(c, actor.UserID, breq)
}

// BulkImport creates leads from a multipart CSV upload in the "file" field.
func (h *Handler) BulkImport(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxImportBytes {
		httpkit.Error(c, http.StatusBadRequest, "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	h.runBulk(c, actor.UserID, bulk.Request{Action: bulk.ActionImport, CSV: string(content)})
}

func (h *Handler) runBulk(c *gin.Context, actorID uuid.UUID, req bulk.Request) {
	if async, _ := strconv.ParseBool(c.Query("async")); async {
		job, err := h.svc.EnqueueBulk(c.Request.Context(), actorID, req)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.JSON(c, http.StatusAccepted, job)
		return
	}

	result, err := h.svc.ExecuteBulk(c.Request.Context(), actorID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) BulkJob(c *gin.Context) {
	job, err := h.svc.BulkJob(c.Request.Context(), c.Param("jobId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, job)
}
