package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/grading"
	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type transcriptEnrollmentReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

// TranscriptService builds a student's full academic history.
type TranscriptService struct {
	students    studentReader
	enrollments transcriptEnrollmentReader
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(students studentReader, enrollments transcriptEnrollmentReader, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{students: students, enrollments: enrollments, logger: logger}
}

// Get returns the transcript of one student, grouped by semester with
// per-term and cumulative GPA.
func (s *TranscriptService) Get(ctx context.Context, actor policy.Actor, studentID string) (*models.Transcript, error) {
	if !policy.CanViewStudent(actor, studentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this student's transcript")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	transcript := grading.BuildTranscript(enrollments)
	transcript.StudentID = student.ID
	transcript.StudentName = student.FullName
	transcript.StudentNumber = student.StudentNumber
	transcript.CourseName = student.CourseName
	return &transcript, nil
}
