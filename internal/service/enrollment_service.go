package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/grading"
	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	"github.com/noah-isme/sga-api/internal/repository"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type enrollmentRepo interface {
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	FindByStudentAndClass(ctx context.Context, studentID, classGroupID string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListByClass(ctx context.Context, classGroupID string, status *models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, finalStatus models.FinalStatus) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// EnrollmentService manages student registrations in class groups.
type EnrollmentService struct {
	enrollments enrollmentRepo
	students    studentReader
	classes     classGroupReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(enrollments enrollmentRepo, students studentReader, classes classGroupReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		students:    students,
		classes:     classes,
		validator:   validate,
		logger:      logger,
	}
}

// Enroll registers a student in a class group. Rejects duplicates, inactive
// students, classes not open for enrollment, and full classes. The capacity
// check happens inside the insert transaction, so a full class never gains a
// row even under concurrent requests.
func (s *EnrollmentService) Enroll(ctx context.Context, actor policy.Actor, req models.EnrollRequest) (*models.Enrollment, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot enroll students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StudentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not active")
	}

	class, err := s.classes.FindByID(ctx, req.ClassGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if class.Status != models.ClassStatusPlanned && class.Status != models.ClassStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class group is not open for enrollment")
	}

	if _, err := s.enrollments.FindByStudentAndClass(ctx, req.StudentID, req.ClassGroupID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this class group")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	enrollment := &models.Enrollment{
		StudentID:    req.StudentID,
		ClassGroupID: req.ClassGroupID,
		Status:       models.EnrollmentStatusEnrolled,
		FinalStatus:  models.FinalStatusInProgress,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrClassFull) {
			return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "class group is at capacity")
		}
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("class_group_id", req.ClassGroupID))
	return enrollment, nil
}

// UpdateStatus moves an enrollment through its lifecycle. ENROLLED is the
// only non-terminal status. Completing without an explicit final status
// derives it from the final grade.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, actor policy.Actor, id string, req models.EnrollmentStatusRequest) (*models.EnrollmentDetail, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update enrollments")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment status")
	}
	if req.FinalStatus != nil && !req.FinalStatus.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid final status")
	}

	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !enrollment.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "enrollment cannot move to the requested status")
	}

	finalStatus := enrollment.FinalStatus
	switch {
	case req.FinalStatus != nil:
		finalStatus = *req.FinalStatus
	case req.Status == models.EnrollmentStatusCompleted:
		finalStatus = grading.FinalStatusFor(enrollment.FinalGrade)
	case req.Status == models.EnrollmentStatusFailed:
		finalStatus = models.FinalStatusFailed
	case req.Status == models.EnrollmentStatusDropped:
		finalStatus = models.FinalStatusIncomplete
	}

	if err := s.enrollments.UpdateStatus(ctx, id, req.Status, finalStatus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	enrollment.Status = req.Status
	enrollment.FinalStatus = finalStatus
	return enrollment, nil
}

// GetByID returns one enrollment, visible to staff and the student.
func (s *EnrollmentService) GetByID(ctx context.Context, actor policy.Actor, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !policy.CanViewStudent(actor, enrollment.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this enrollment")
	}
	return enrollment, nil
}

// ListByClass returns the enrollments of one class group.
func (s *EnrollmentService) ListByClass(ctx context.Context, actor policy.Actor, classGroupID string, status *models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	if !policy.Allows(actor.Role, policy.TeacherOrAbove) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot list class enrollments")
	}
	if status != nil && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment status")
	}
	enrollments, err := s.enrollments.ListByClass(ctx, classGroupID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class enrollments")
	}
	return enrollments, nil
}

// List returns enrollments matching the filter. Students are restricted to
// their own records.
func (s *EnrollmentService) List(ctx context.Context, actor policy.Actor, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	if actor.Role == models.RoleStudent {
		if actor.StudentID == "" || (filter.StudentID != "" && filter.StudentID != actor.StudentID) {
			return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "cannot list other students' enrollments")
		}
		filter.StudentID = actor.StudentID
	}
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, total, nil
}
