package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type classGroupRepo interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroupDetail, error)
	FindByOffering(ctx context.Context, subjectID, classCode string, semester, year int) (*models.ClassGroup, error)
	List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupDetail, int, error)
	Create(ctx context.Context, class *models.ClassGroup) error
	Update(ctx context.Context, class *models.ClassGroup) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
	CountEnrolled(ctx context.Context, id string) (int, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateClassGroupRequest opens a new offering of a subject.
type CreateClassGroupRequest struct {
	SubjectID    string     `json:"subject_id" validate:"required,uuid4"`
	TeacherID    string     `json:"teacher_id" validate:"required,uuid4"`
	ClassCode    string     `json:"class_code" validate:"required,min=1,max=20"`
	Semester     int        `json:"semester" validate:"required,min=1,max=2"`
	Year         int        `json:"year" validate:"required,min=2000"`
	MaxStudents  int        `json:"max_students" validate:"required,gt=0"`
	Classroom    *string    `json:"classroom,omitempty"`
	ScheduleInfo *string    `json:"schedule_info,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// UpdateClassGroupRequest updates mutable class group fields. The offering
// key (subject, code, semester, year) is immutable.
type UpdateClassGroupRequest struct {
	TeacherID    *string    `json:"teacher_id,omitempty" validate:"omitempty,uuid4"`
	MaxStudents  *int       `json:"max_students,omitempty" validate:"omitempty,gt=0"`
	Classroom    *string    `json:"classroom,omitempty"`
	ScheduleInfo *string    `json:"schedule_info,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
}

// ClassStatusRequest moves a class group through its lifecycle.
type ClassStatusRequest struct {
	Status models.ClassStatus `json:"status" validate:"required"`
}

// ClassService manages class group offerings and their lifecycle.
type ClassService struct {
	classes   classGroupRepo
	subjects  subjectReader
	teachers  teacherReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(classes classGroupRepo, subjects subjectReader, teachers teacherReader, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		classes:   classes,
		subjects:  subjects,
		teachers:  teachers,
		validator: validate,
		logger:    logger,
	}
}

// Create opens a new class group in PLANNED status. The offering key must be
// unique and the teacher must be active.
func (s *ClassService) Create(ctx context.Context, actor policy.Actor, req CreateClassGroupRequest) (*models.ClassGroup, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create class groups")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group payload")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if !subject.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject is inactive")
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.Status != models.TeacherStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not active")
	}

	if _, err := s.classes.FindByOffering(ctx, req.SubjectID, req.ClassCode, req.Semester, req.Year); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "class group already exists for this offering")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering")
	}

	class := &models.ClassGroup{
		SubjectID:    req.SubjectID,
		TeacherID:    req.TeacherID,
		ClassCode:    req.ClassCode,
		Semester:     req.Semester,
		Year:         req.Year,
		MaxStudents:  req.MaxStudents,
		Classroom:    req.Classroom,
		ScheduleInfo: req.ScheduleInfo,
		Status:       models.ClassStatusPlanned,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class group")
	}
	s.logger.Info("class group created", zap.String("class_group_id", class.ID), zap.String("class_code", class.ClassCode))
	return class, nil
}

// GetByID returns one class group with joined context.
func (s *ClassService) GetByID(ctx context.Context, id string) (*models.ClassGroupDetail, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	return class, nil
}

// List returns class groups matching the filter.
func (s *ClassService) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupDetail, int, error) {
	classes, total, err := s.classes.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class groups")
	}
	return classes, total, nil
}

// Update changes mutable class group fields. Shrinking MaxStudents below the
// current headcount is rejected.
func (s *ClassService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateClassGroupRequest) (*models.ClassGroup, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update class groups")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class group payload")
	}

	detail, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	class := detail.ClassGroup

	if req.TeacherID != nil && *req.TeacherID != class.TeacherID {
		teacher, err := s.teachers.FindByID(ctx, *req.TeacherID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
		}
		if teacher.Status != models.TeacherStatusActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not active")
		}
		class.TeacherID = *req.TeacherID
	}
	if req.MaxStudents != nil {
		if *req.MaxStudents < detail.EnrolledCount {
			return nil, appErrors.Clone(appErrors.ErrValidation, "max students below current enrollment")
		}
		class.MaxStudents = *req.MaxStudents
	}
	if req.Classroom != nil {
		class.Classroom = req.Classroom
	}
	if req.ScheduleInfo != nil {
		class.ScheduleInfo = req.ScheduleInfo
	}
	if req.StartDate != nil {
		class.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		class.EndDate = req.EndDate
	}

	if err := s.classes.Update(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class group")
	}
	return &class, nil
}

// ChangeStatus moves a class group through its lifecycle. Cancelling a class
// that still has enrolled students is blocked.
func (s *ClassService) ChangeStatus(ctx context.Context, actor policy.Actor, id string, req ClassStatusRequest) (*models.ClassGroupDetail, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change class group status")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class group status")
	}

	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if !class.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "class group cannot move to this status")
	}

	if req.Status == models.ClassStatusCancelled {
		enrolled, err := s.classes.CountEnrolled(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
		}
		if enrolled > 0 {
			return nil, appErrors.Clone(appErrors.ErrDependentRecords, "class group still has enrolled students")
		}
	}

	if err := s.classes.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class group status")
	}
	s.logger.Info("class group status changed",
		zap.String("class_group_id", id),
		zap.String("from", string(class.Status)),
		zap.String("to", string(req.Status)))
	class.Status = req.Status
	return class, nil
}
