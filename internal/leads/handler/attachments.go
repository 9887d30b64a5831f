package handler

import (
	"net/http"

	"dealership_backend/internal/leads/domain"
	"dealership_backend/internal/leads/service"
	"dealership_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// UploadAttachment stores a multipart file ("file") under the category
// given in the "category" form field.
func (h *Handler) UploadAttachment(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	category, err := domain.ParseAttachmentCategory(c.PostForm("category"))
	if httpkit.HandleError(c, err) {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	att, err := h.svc.UploadAttachment(c.Request.Context(), actor.UserID, id, service.UploadAttachment{
		Category:    category,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		Body:        file,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, att)
}
