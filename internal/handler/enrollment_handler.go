package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/service"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	grades      *service.GradeService
	attendance  *service.AttendanceService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, grades *service.GradeService, attendance *service.AttendanceService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, grades: grades, attendance: attendance}
}

// Enroll godoc
// @Summary Enroll a student in a class group
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req models.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Get godoc
// @Summary Get an enrollment by id
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.GetByID(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param class_group_id query string false "Filter by class group"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	page, pageSize := paginationFromQuery(c)
	filter := models.EnrollmentFilter{
		StudentID:    c.Query("student_id"),
		ClassGroupID: c.Query("class_group_id"),
		Page:         page,
		PageSize:     pageSize,
	}
	if status := c.Query("status"); status != "" {
		s := models.EnrollmentStatus(status)
		filter.Status = &s
	}

	enrollments, total, err := h.enrollments.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total})
}

// UpdateStatus godoc
// @Summary Move an enrollment through its lifecycle
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment id"
// @Param payload body models.EnrollmentStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/status [put]
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req models.EnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.UpdateStatus(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Grades godoc
// @Summary List the grades of an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/grades [get]
func (h *EnrollmentHandler) Grades(c *gin.Context) {
	grades, err := h.grades.ListForEnrollment(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// Attendance godoc
// @Summary List the attendance records of an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/attendance [get]
func (h *EnrollmentHandler) Attendance(c *gin.Context) {
	records, err := h.attendance.ListByEnrollment(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// AttendanceSummary godoc
// @Summary Get the attendance summary of an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment id"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{id}/attendance/summary [get]
func (h *EnrollmentHandler) AttendanceSummary(c *gin.Context) {
	summary, err := h.attendance.Summary(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
