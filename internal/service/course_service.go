package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type courseRepo interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, institutionID, code string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id string) error
	CountActiveStudents(ctx context.Context, id string) (int, error)
}

type institutionReader interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
}

// CreateCourseRequest registers a new course under an institution.
type CreateCourseRequest struct {
	InstitutionID     string            `json:"institution_id" validate:"required,uuid4"`
	Name              string            `json:"name" validate:"required,min=2,max=200"`
	Code              string            `json:"code" validate:"required,min=2,max=20"`
	Description       *string           `json:"description,omitempty"`
	DurationSemesters int               `json:"duration_semesters" validate:"required,gt=0"`
	TotalCredits      *int              `json:"total_credits,omitempty" validate:"omitempty,gt=0"`
	DegreeType        models.DegreeType `json:"degree_type" validate:"required"`
}

// UpdateCourseRequest updates mutable course fields. InstitutionID and Code
// are immutable once assigned.
type UpdateCourseRequest struct {
	Name              *string            `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description       *string            `json:"description,omitempty"`
	DurationSemesters *int               `json:"duration_semesters,omitempty" validate:"omitempty,gt=0"`
	TotalCredits      *int               `json:"total_credits,omitempty" validate:"omitempty,gt=0"`
	DegreeType        *models.DegreeType `json:"degree_type,omitempty"`
}

// CourseService manages courses.
type CourseService struct {
	courses      courseRepo
	institutions institutionReader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseRepo, institutions institutionReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, institutions: institutions, validator: validate, logger: logger}
}

// Create registers a new course. The code must be unique within the
// institution.
func (s *CourseService) Create(ctx context.Context, actor policy.Actor, req CreateCourseRequest) (*models.Course, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if !req.DegreeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid degree type")
	}

	inst, err := s.institutions.FindByID(ctx, req.InstitutionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	if !inst.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "institution is inactive")
	}

	if _, err := s.courses.FindByCode(ctx, req.InstitutionID, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}

	course := &models.Course{
		InstitutionID:     req.InstitutionID,
		Name:              req.Name,
		Code:              req.Code,
		Description:       req.Description,
		DurationSemesters: req.DurationSemesters,
		TotalCredits:      req.TotalCredits,
		DegreeType:        req.DegreeType,
		Active:            true,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// GetByID returns one course.
func (s *CourseService) GetByID(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, total, nil
}

// Update changes mutable course fields.
func (s *CourseService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateCourseRequest) (*models.Course, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update courses")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.DurationSemesters != nil {
		course.DurationSemesters = *req.DurationSemesters
	}
	if req.TotalCredits != nil {
		course.TotalCredits = req.TotalCredits
	}
	if req.DegreeType != nil {
		if !req.DegreeType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid degree type")
		}
		course.DegreeType = *req.DegreeType
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Deactivate soft-deletes a course. Blocked while the course still has
// active students.
func (s *CourseService) Deactivate(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate courses")
	}
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	active, err := s.courses.CountActiveStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active students")
	}
	if active > 0 {
		return appErrors.Clone(appErrors.ErrDependentRecords, "course still has active students")
	}

	if err := s.courses.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	s.logger.Info("course deactivated", zap.String("course_id", id))
	return nil
}
