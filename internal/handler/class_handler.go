package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/service"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/response"
)

// ClassHandler exposes class group endpoints.
type ClassHandler struct {
	classes     *service.ClassService
	evaluations *service.EvaluationService
	enrollments *service.EnrollmentService
}

// NewClassHandler constructs handler.
func NewClassHandler(classes *service.ClassService, evaluations *service.EvaluationService, enrollments *service.EnrollmentService) *ClassHandler {
	return &ClassHandler{classes: classes, evaluations: evaluations, enrollments: enrollments}
}

// Create godoc
// @Summary Create a class group
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassGroupRequest true "Class group payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Get godoc
// @Summary Get a class group by id
// @Tags Classes
// @Produce json
// @Param id path string true "Class group id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// List godoc
// @Summary List class groups
// @Tags Classes
// @Produce json
// @Param subject_id query string false "Filter by subject"
// @Param teacher_id query string false "Filter by teacher"
// @Param status query string false "Filter by status"
// @Param semester query int false "Filter by semester"
// @Param year query int false "Filter by year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	page, pageSize := paginationFromQuery(c)
	filter := models.ClassGroupFilter{
		SubjectID: c.Query("subject_id"),
		TeacherID: c.Query("teacher_id"),
		Semester:  intQuery(c, "semester"),
		Year:      intQuery(c, "year"),
		Page:      page,
		PageSize:  pageSize,
	}
	if status := c.Query("status"); status != "" {
		s := models.ClassStatus(status)
		filter.Status = &s
	}

	classes, total, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}

// Update godoc
// @Summary Update a class group
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class group id"
// @Param payload body service.UpdateClassGroupRequest true "Class group payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.UpdateClassGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// ChangeStatus godoc
// @Summary Move a class group through its lifecycle
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class group id"
// @Param payload body service.ClassStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/status [put]
func (h *ClassHandler) ChangeStatus(c *gin.Context) {
	var req service.ClassStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.ChangeStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Evaluations godoc
// @Summary List evaluations of a class group
// @Tags Classes
// @Produce json
// @Param id path string true "Class group id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/evaluations [get]
func (h *ClassHandler) Evaluations(c *gin.Context) {
	evaluations, err := h.evaluations.ListByClassGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluations, nil)
}

// Enrollments godoc
// @Summary List enrollments of a class group
// @Tags Classes
// @Produce json
// @Param id path string true "Class group id"
// @Param status query string false "Filter by enrollment status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /classes/{id}/enrollments [get]
func (h *ClassHandler) Enrollments(c *gin.Context) {
	var status *models.EnrollmentStatus
	if raw := c.Query("status"); raw != "" {
		s := models.EnrollmentStatus(raw)
		status = &s
	}
	enrollments, err := h.enrollments.ListByClass(c.Request.Context(), actorFromContext(c), c.Param("id"), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
