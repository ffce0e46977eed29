package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/grading"
	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type attendanceRepo interface {
	Exists(ctx context.Context, enrollmentID string, classDate time.Time, classPeriod int) (bool, error)
	Create(ctx context.Context, record *models.Attendance) error
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	Update(ctx context.Context, record *models.Attendance) error
	Delete(ctx context.Context, id string) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error)
	StatusCounts(ctx context.Context, enrollmentID string) (map[models.AttendanceStatus]int, error)
}

// AttendanceService records presence and computes attendance ratios. The
// percentage is always derived on read, never stored.
type AttendanceService struct {
	attendances attendanceRepo
	enrollments enrollmentReader
	classes     classGroupReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(attendances attendanceRepo, enrollments enrollmentReader, classes classGroupReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		attendances: attendances,
		enrollments: enrollments,
		classes:     classes,
		validator:   validate,
		logger:      logger,
	}
}

// Record stores one presence record. The (enrollment, date, period) triple
// is unique; a second record for the same period is a conflict.
func (s *AttendanceService) Record(ctx context.Context, actor policy.Actor, req models.RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.authorize(ctx, actor, enrollment.ClassGroupID); err != nil {
		return nil, err
	}

	exists, err := s.attendances.Exists(ctx, req.EnrollmentID, req.ClassDate, req.ClassPeriod)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this period")
	}

	recordedBy := actor.UserID
	record := &models.Attendance{
		EnrollmentID: req.EnrollmentID,
		ClassDate:    req.ClassDate,
		ClassPeriod:  req.ClassPeriod,
		Status:       req.Status,
		Notes:        req.Notes,
		RecordedBy:   &recordedBy,
	}
	if err := s.attendances.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	s.logger.Info("attendance recorded",
		zap.String("enrollment_id", record.EnrollmentID),
		zap.String("status", string(record.Status)))
	return record, nil
}

// Update replaces the status and notes of an existing record.
func (s *AttendanceService) Update(ctx context.Context, actor policy.Actor, id string, status models.AttendanceStatus, notes *string) (*models.Attendance, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
	}
	record, err := s.attendances.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	enrollment, err := s.enrollments.FindByID(ctx, record.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.authorize(ctx, actor, enrollment.ClassGroupID); err != nil {
		return nil, err
	}

	recordedBy := actor.UserID
	record.Status = status
	record.Notes = notes
	record.RecordedBy = &recordedBy
	if err := s.attendances.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	return record, nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	record, err := s.attendances.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	enrollment, err := s.enrollments.FindByID(ctx, record.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.authorize(ctx, actor, enrollment.ClassGroupID); err != nil {
		return err
	}
	if err := s.attendances.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	return nil
}

// ListByEnrollment returns an enrollment's attendance history.
func (s *AttendanceService) ListByEnrollment(ctx context.Context, actor policy.Actor, enrollmentID string) ([]models.Attendance, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !policy.CanViewStudent(actor, enrollment.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this student's attendance")
	}
	records, err := s.attendances.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Summary aggregates an enrollment's presence counts. Present and late count
// toward the percentage; justified does not. Zero records yield zero.
func (s *AttendanceService) Summary(ctx context.Context, actor policy.Actor, enrollmentID string) (*models.AttendanceSummary, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !policy.CanViewStudent(actor, enrollment.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this student's attendance")
	}

	counts, err := s.attendances.StatusCounts(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}

	summary := &models.AttendanceSummary{
		EnrollmentID: enrollmentID,
		Present:      counts[models.AttendancePresent],
		Absent:       counts[models.AttendanceAbsent],
		Late:         counts[models.AttendanceLate],
		Justified:    counts[models.AttendanceJustified],
	}
	summary.Total = summary.Present + summary.Absent + summary.Late + summary.Justified
	summary.Percentage = grading.AttendancePercentage(summary.Present+summary.Late, summary.Total)
	return summary, nil
}

func (s *AttendanceService) authorize(ctx context.Context, actor policy.Actor, classGroupID string) error {
	class, err := s.classes.FindByID(ctx, classGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if !policy.CanManageClass(actor, class.TeacherID) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot manage attendance for this class group")
	}
	return nil
}
