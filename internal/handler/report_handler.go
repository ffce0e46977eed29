package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/policy"
	"github.com/noah-isme/sga-api/internal/service"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/response"
)

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports *service.ReportService
	metrics *service.MetricsService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, metrics *service.MetricsService) *ReportHandler {
	return &ReportHandler{reports: reports, metrics: metrics}
}

// Dashboard godoc
// @Summary Get dashboard counters scoped to the caller's role
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	stats, err := h.reports.Dashboard(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ClassSummary godoc
// @Summary Get the statistical summary of a class group
// @Tags Reports
// @Produce json
// @Param id path string true "Class group id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/summary [get]
func (h *ReportHandler) ClassSummary(c *gin.Context) {
	summary, err := h.reports.ClassSummary(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ClassStats godoc
// @Summary Get per-class aggregate statistics
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/classes [get]
func (h *ReportHandler) ClassStats(c *gin.Context) {
	stats, err := h.reports.ClassStats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// StudentStats godoc
// @Summary Get student distributions by status and course
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/students [get]
func (h *ReportHandler) StudentStats(c *gin.Context) {
	stats, err := h.reports.StudentStats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// CourseStats godoc
// @Summary Get course distributions by degree type and institution
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/courses [get]
func (h *ReportHandler) CourseStats(c *gin.Context) {
	stats, err := h.reports.CourseStats(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Performance godoc
// @Summary Get approval and grade performance per subject
// @Tags Reports
// @Produce json
// @Param course_id query string false "Filter by course"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	report, err := h.reports.Performance(c.Request.Context(), actorFromContext(c), c.Query("course_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// SystemMetrics godoc
// @Summary Get a snapshot of runtime counters
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/system [get]
func (h *ReportHandler) SystemMetrics(c *gin.Context) {
	actor := actorFromContext(c)
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot view system metrics"))
		return
	}
	snapshot := h.metrics.Snapshot()
	response.JSON(c, http.StatusOK, snapshot, nil)
}
