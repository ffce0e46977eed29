package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/service"
	"github.com/noah-isme/sga-api/pkg/response"
)

// ExportHandler streams transcript and gradebook files.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// TranscriptPDF godoc
// @Summary Download a student's transcript as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Student id"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /students/{id}/transcript/pdf [get]
func (h *ExportHandler) TranscriptPDF(c *gin.Context) {
	data, filename, err := h.exports.TranscriptPDF(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// GradebookCSV godoc
// @Summary Download a class group's gradebook as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Class group id"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /classes/{id}/gradebook/csv [get]
func (h *ExportHandler) GradebookCSV(c *gin.Context) {
	data, filename, err := h.exports.GradebookCSV(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
