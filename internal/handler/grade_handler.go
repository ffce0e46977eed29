package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/service"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/response"
)

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades  *service.GradeService
	metrics *service.MetricsService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, metrics *service.MetricsService) *GradeHandler {
	return &GradeHandler{grades: grades, metrics: metrics}
}

// Upsert godoc
// @Summary Record or replace one grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.UpsertGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [put]
func (h *GradeHandler) Upsert(c *gin.Context) {
	var req models.UpsertGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	grade, err := h.grades.Upsert(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveGradeWrites(1)
	response.JSON(c, http.StatusOK, grade, nil)
}

// BatchUpsert godoc
// @Summary Record grades for many students on one evaluation
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body models.BatchGradesRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope "Batch rejected, nothing committed"
// @Security BearerAuth
// @Router /grades/batch [put]
func (h *GradeHandler) BatchUpsert(c *gin.Context) {
	var req models.BatchGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.grades.BatchUpsert(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// A batch with item errors commits nothing; the status code has to say so.
	if len(result.Errors) > 0 {
		response.JSON(c, http.StatusUnprocessableEntity, result, nil)
		return
	}
	h.metrics.ObserveGradeWrites(result.Created + result.Updated)
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a grade
// @Tags Grades
// @Produce json
// @Param id path string true "Grade id"
// @Success 204
// @Security BearerAuth
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	if err := h.grades.Delete(c.Request.Context(), actorFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Gradebook godoc
// @Summary Get the full gradebook of a class group
// @Tags Grades
// @Produce json
// @Param id path string true "Class group id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/gradebook [get]
func (h *GradeHandler) Gradebook(c *gin.Context) {
	gradebook, err := h.grades.Gradebook(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gradebook, nil)
}

// PendingGrades godoc
// @Summary List missing grades of a class group
// @Tags Grades
// @Produce json
// @Param id path string true "Class group id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/pending-grades [get]
func (h *GradeHandler) PendingGrades(c *gin.Context) {
	pending, err := h.grades.PendingGrades(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}
