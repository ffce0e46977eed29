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

type subjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindByCode(ctx context.Context, courseID, code string) (*models.Subject, error)
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Deactivate(ctx context.Context, id string) error
}

// CreateSubjectRequest registers a new subject under a course.
type CreateSubjectRequest struct {
	CourseID      string   `json:"course_id" validate:"required,uuid4"`
	Name          string   `json:"name" validate:"required,min=2,max=200"`
	Code          string   `json:"code" validate:"required,min=2,max=20"`
	Description   *string  `json:"description,omitempty"`
	Credits       int      `json:"credits" validate:"required,gt=0"`
	WorkloadHours int      `json:"workload_hours" validate:"required,gt=0"`
	Semester      *int     `json:"semester,omitempty" validate:"omitempty,gt=0"`
	Mandatory     bool     `json:"mandatory"`
	Prerequisites []string `json:"prerequisites,omitempty" validate:"omitempty,dive,uuid4"`
}

// UpdateSubjectRequest updates mutable subject fields. CourseID and Code are
// immutable once assigned.
type UpdateSubjectRequest struct {
	Name          *string   `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description   *string   `json:"description,omitempty"`
	Credits       *int      `json:"credits,omitempty" validate:"omitempty,gt=0"`
	WorkloadHours *int      `json:"workload_hours,omitempty" validate:"omitempty,gt=0"`
	Semester      *int      `json:"semester,omitempty" validate:"omitempty,gt=0"`
	Mandatory     *bool     `json:"mandatory,omitempty"`
	Prerequisites *[]string `json:"prerequisites,omitempty" validate:"omitempty,dive,uuid4"`
}

// SubjectService manages subjects and their prerequisite lists.
type SubjectService struct {
	subjects  subjectRepo
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(subjects subjectRepo, courses courseReader, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{subjects: subjects, courses: courses, validator: validate, logger: logger}
}

// Create registers a new subject. The code must be unique within the course
// and every prerequisite must be an existing subject of the same course.
func (s *SubjectService) Create(ctx context.Context, actor policy.Actor, req CreateSubjectRequest) (*models.Subject, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create subjects")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is inactive")
	}

	if _, err := s.subjects.FindByCode(ctx, req.CourseID, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already in use")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}

	if err := s.checkPrerequisites(ctx, req.CourseID, "", req.Prerequisites); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		CourseID:      req.CourseID,
		Name:          req.Name,
		Code:          req.Code,
		Description:   req.Description,
		Credits:       req.Credits,
		WorkloadHours: req.WorkloadHours,
		Semester:      req.Semester,
		Mandatory:     req.Mandatory,
		Prerequisites: models.IDList(req.Prerequisites),
		Active:        true,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("code", subject.Code))
	return subject, nil
}

// GetByID returns one subject.
func (s *SubjectService) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// List returns subjects matching the filter.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	subjects, total, err := s.subjects.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, total, nil
}

// Update changes mutable subject fields.
func (s *SubjectService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update subjects")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.Description != nil {
		subject.Description = req.Description
	}
	if req.Credits != nil {
		subject.Credits = *req.Credits
	}
	if req.WorkloadHours != nil {
		subject.WorkloadHours = *req.WorkloadHours
	}
	if req.Semester != nil {
		subject.Semester = req.Semester
	}
	if req.Mandatory != nil {
		subject.Mandatory = *req.Mandatory
	}
	if req.Prerequisites != nil {
		if err := s.checkPrerequisites(ctx, subject.CourseID, subject.ID, *req.Prerequisites); err != nil {
			return nil, err
		}
		subject.Prerequisites = models.IDList(*req.Prerequisites)
	}
	if err := s.subjects.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Deactivate soft-deletes a subject.
func (s *SubjectService) Deactivate(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate subjects")
	}
	if _, err := s.subjects.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.subjects.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate subject")
	}
	return nil
}

// checkPrerequisites verifies each referenced subject exists, belongs to the
// same course and is not the subject itself.
func (s *SubjectService) checkPrerequisites(ctx context.Context, courseID, selfID string, prerequisites []string) error {
	for _, prereqID := range prerequisites {
		if prereqID == selfID {
			return appErrors.Clone(appErrors.ErrValidation, "subject cannot be its own prerequisite")
		}
		prereq, err := s.subjects.FindByID(ctx, prereqID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrValidation, "prerequisite subject not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite")
		}
		if prereq.CourseID != courseID {
			return appErrors.Clone(appErrors.ErrValidation, "prerequisite belongs to another course")
		}
	}
	return nil
}
