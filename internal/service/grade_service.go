package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type gradeRepo interface {
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListForEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error)
	ListForClass(ctx context.Context, classGroupID string) ([]models.Grade, error)
	Upsert(ctx context.Context, grade *models.Grade) error
	BatchUpsert(ctx context.Context, grades []models.Grade) error
	Delete(ctx context.Context, id string) error
	ListPending(ctx context.Context, classGroupID string) ([]models.PendingGrade, error)
}

type enrollmentReader interface {
	FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListByClass(ctx context.Context, classGroupID string, status *models.EnrollmentStatus) ([]models.EnrollmentDetail, error)
}

type evaluationReader interface {
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Evaluation, error)
}

type classGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassGroupDetail, error)
}

// BatchGradesResult summarises the outcome of a batch submission. When
// Errors is non-empty nothing was committed.
type BatchGradesResult struct {
	Created int                      `json:"created"`
	Updated int                      `json:"updated"`
	Errors  []models.BatchGradeError `json:"errors,omitempty"`
}

// GradeService orchestrates grade entry. The repository recomputes the
// enrollment's final grade inside the same transaction as every write.
type GradeService struct {
	grades      gradeRepo
	enrollments enrollmentReader
	evaluations evaluationReader
	classes     classGroupReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepo, enrollments enrollmentReader, evaluations evaluationReader, classes classGroupReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		enrollments: enrollments,
		evaluations: evaluations,
		classes:     classes,
		validator:   validate,
		logger:      logger,
	}
}

// Upsert records or replaces a score for one enrollment and evaluation pair.
func (s *GradeService) Upsert(ctx context.Context, actor policy.Actor, req models.UpsertGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	evaluation, err := s.evaluations.FindByID(ctx, req.EvaluationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	if evaluation.ClassGroupID != enrollment.ClassGroupID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evaluation does not belong to the enrollment's class group")
	}
	if err := s.authorizeClassMutation(ctx, actor, evaluation.ClassGroupID); err != nil {
		return nil, err
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > evaluation.MaxScore) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("score must be between 0 and %.2f", evaluation.MaxScore))
	}

	gradedBy := actor.UserID
	grade := &models.Grade{
		EnrollmentID: req.EnrollmentID,
		EvaluationID: req.EvaluationID,
		Score:        req.Score,
		Comments:     req.Comments,
		GradedBy:     &gradedBy,
	}
	if err := s.grades.Upsert(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert grade")
	}
	s.logger.Info("grade recorded",
		zap.String("enrollment_id", grade.EnrollmentID),
		zap.String("evaluation_id", grade.EvaluationID))
	return grade, nil
}

// BatchUpsert records scores for many students on one evaluation. The batch
// is all-or-nothing: any invalid item rejects the whole submission and the
// per-item errors are reported back.
func (s *GradeService) BatchUpsert(ctx context.Context, actor policy.Actor, req models.BatchGradesRequest) (*BatchGradesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	evaluation, err := s.evaluations.FindByID(ctx, req.EvaluationID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	if err := s.authorizeClassMutation(ctx, actor, evaluation.ClassGroupID); err != nil {
		return nil, err
	}

	existing, err := s.grades.ListForClass(ctx, evaluation.ClassGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing grades")
	}
	graded := make(map[string]bool)
	for _, g := range existing {
		if g.EvaluationID == evaluation.ID {
			graded[g.EnrollmentID] = true
		}
	}

	result := &BatchGradesResult{}
	gradedBy := actor.UserID
	grades := make([]models.Grade, 0, len(req.Grades))
	seen := make(map[string]bool, len(req.Grades))
	for _, item := range req.Grades {
		if seen[item.EnrollmentID] {
			result.Errors = append(result.Errors, models.BatchGradeError{EnrollmentID: item.EnrollmentID, Reason: "duplicate enrollment in batch"})
			continue
		}
		seen[item.EnrollmentID] = true

		enrollment, err := s.enrollments.FindByID(ctx, item.EnrollmentID)
		if err != nil {
			if err == sql.ErrNoRows {
				result.Errors = append(result.Errors, models.BatchGradeError{EnrollmentID: item.EnrollmentID, Reason: "enrollment not found"})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
		}
		if enrollment.ClassGroupID != evaluation.ClassGroupID {
			result.Errors = append(result.Errors, models.BatchGradeError{EnrollmentID: item.EnrollmentID, Reason: "enrollment not in the evaluation's class group"})
			continue
		}
		if item.Score != nil && (*item.Score < 0 || *item.Score > evaluation.MaxScore) {
			result.Errors = append(result.Errors, models.BatchGradeError{EnrollmentID: item.EnrollmentID, Reason: fmt.Sprintf("score must be between 0 and %.2f", evaluation.MaxScore)})
			continue
		}

		grades = append(grades, models.Grade{
			EnrollmentID: item.EnrollmentID,
			EvaluationID: evaluation.ID,
			Score:        item.Score,
			Comments:     item.Comments,
			GradedBy:     &gradedBy,
		})
	}

	if len(result.Errors) > 0 {
		return result, nil
	}

	if err := s.grades.BatchUpsert(ctx, grades); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to batch upsert grades")
	}
	for _, g := range grades {
		if graded[g.EnrollmentID] {
			result.Updated++
		} else {
			result.Created++
		}
	}
	s.logger.Info("batch grades recorded",
		zap.String("evaluation_id", evaluation.ID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated))
	return result, nil
}

// Delete removes a grade row, triggering a recompute of the parent
// enrollment's final grade.
func (s *GradeService) Delete(ctx context.Context, actor policy.Actor, gradeID string) error {
	grade, err := s.grades.FindByID(ctx, gradeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	enrollment, err := s.enrollments.FindByID(ctx, grade.EnrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.authorizeClassMutation(ctx, actor, enrollment.ClassGroupID); err != nil {
		return err
	}
	if err := s.grades.Delete(ctx, gradeID); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

// ListForEnrollment returns an enrollment's grades with evaluation context.
func (s *GradeService) ListForEnrollment(ctx context.Context, actor policy.Actor, enrollmentID string) ([]models.GradeDetail, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !policy.CanViewStudent(actor, enrollment.StudentID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this student's grades")
	}
	grades, err := s.grades.ListForEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Gradebook assembles the full score matrix of a class group, one row per
// enrolled student and one column per evaluation.
func (s *GradeService) Gradebook(ctx context.Context, actor policy.Actor, classGroupID string) (*models.Gradebook, error) {
	class, err := s.classes.FindByID(ctx, classGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if !policy.CanManageClass(actor, class.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this class's gradebook")
	}

	evaluations, err := s.evaluations.ListByClassGroup(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	enrolled := models.EnrollmentStatusEnrolled
	enrollments, err := s.enrollments.ListByClass(ctx, classGroupID, &enrolled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	grades, err := s.grades.ListForClass(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}

	scoreByPair := make(map[string]*float64, len(grades))
	for _, g := range grades {
		scoreByPair[g.EnrollmentID+"|"+g.EvaluationID] = g.Score
	}

	rows := make([]models.GradebookRow, 0, len(enrollments))
	for _, e := range enrollments {
		scores := make([]*float64, len(evaluations))
		for i, ev := range evaluations {
			scores[i] = scoreByPair[e.ID+"|"+ev.ID]
		}
		rows = append(rows, models.GradebookRow{
			EnrollmentID:  e.ID,
			StudentID:     e.StudentID,
			StudentName:   e.StudentName,
			StudentNumber: e.StudentNumber,
			Scores:        scores,
			FinalGrade:    e.FinalGrade,
			FinalStatus:   e.FinalStatus,
		})
	}

	return &models.Gradebook{
		ClassGroupID: classGroupID,
		SubjectName:  class.SubjectName,
		ClassCode:    class.ClassCode,
		Evaluations:  evaluations,
		Rows:         rows,
	}, nil
}

// PendingGrades lists the ungraded (enrollment, evaluation) pairs of a class
// group.
func (s *GradeService) PendingGrades(ctx context.Context, actor policy.Actor, classGroupID string) ([]models.PendingGrade, error) {
	if err := s.authorizeClassMutation(ctx, actor, classGroupID); err != nil {
		return nil, err
	}
	pending, err := s.grades.ListPending(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending grades")
	}
	return pending, nil
}

func (s *GradeService) authorizeClassMutation(ctx context.Context, actor policy.Actor, classGroupID string) error {
	class, err := s.classes.FindByID(ctx, classGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if !policy.CanManageClass(actor, class.TeacherID) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot manage grades for this class group")
	}
	return nil
}
