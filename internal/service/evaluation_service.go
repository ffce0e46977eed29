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

type evaluationRepo interface {
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Evaluation, error)
	Create(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, evaluation *models.Evaluation) error
	Delete(ctx context.Context, id string) error
	CountGrades(ctx context.Context, id string) (int, error)
}

// EvaluationService manages the assessment instruments of class groups.
type EvaluationService struct {
	evaluations evaluationRepo
	classes     classGroupReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(evaluations evaluationRepo, classes classGroupReader, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{evaluations: evaluations, classes: classes, validator: validate, logger: logger}
}

// Create adds an evaluation to a class group. Only the class teacher or
// staff may define evaluations, and only on non-terminal classes.
func (s *EvaluationService) Create(ctx context.Context, actor policy.Actor, req models.CreateEvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid evaluation type")
	}

	class, err := s.authorize(ctx, actor, req.ClassGroupID)
	if err != nil {
		return nil, err
	}
	if class.Status != models.ClassStatusPlanned && class.Status != models.ClassStatusActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class group is not open for evaluations")
	}

	evaluation := &models.Evaluation{
		ClassGroupID: req.ClassGroupID,
		Name:         req.Name,
		Type:         req.Type,
		Description:  req.Description,
		Weight:       req.Weight,
		MaxScore:     req.MaxScore,
		Date:         req.Date,
	}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}
	s.logger.Info("evaluation created",
		zap.String("evaluation_id", evaluation.ID),
		zap.String("class_group_id", evaluation.ClassGroupID))
	return evaluation, nil
}

// GetByID returns one evaluation.
func (s *EvaluationService) GetByID(ctx context.Context, id string) (*models.Evaluation, error) {
	evaluation, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	return evaluation, nil
}

// ListByClassGroup returns the evaluations of a class group ordered by date.
func (s *EvaluationService) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Evaluation, error) {
	evaluations, err := s.evaluations.ListByClassGroup(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	return evaluations, nil
}

// Update changes evaluation attributes. Changing the weight of an evaluation
// that already has grades shifts final grades the next time any of them is
// rewritten, so it stays allowed but is logged.
func (s *EvaluationService) Update(ctx context.Context, actor policy.Actor, id string, req models.UpdateEvaluationRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	evaluation, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	if _, err := s.authorize(ctx, actor, evaluation.ClassGroupID); err != nil {
		return nil, err
	}

	if req.Name != nil {
		evaluation.Name = *req.Name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid evaluation type")
		}
		evaluation.Type = *req.Type
	}
	if req.Description != nil {
		evaluation.Description = req.Description
	}
	if req.Weight != nil && *req.Weight != evaluation.Weight {
		graded, err := s.evaluations.CountGrades(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count grades")
		}
		if graded > 0 {
			s.logger.Warn("evaluation weight changed with existing grades",
				zap.String("evaluation_id", id),
				zap.Float64("old_weight", evaluation.Weight),
				zap.Float64("new_weight", *req.Weight),
				zap.Int("graded", graded))
		}
		evaluation.Weight = *req.Weight
	}
	if req.MaxScore != nil {
		evaluation.MaxScore = *req.MaxScore
	}
	if req.Date != nil {
		evaluation.Date = req.Date
	}
	if req.IsPublished != nil {
		evaluation.IsPublished = *req.IsPublished
	}

	if err := s.evaluations.Update(ctx, evaluation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evaluation")
	}
	return evaluation, nil
}

// Delete removes an evaluation. Blocked while grade rows reference it.
func (s *EvaluationService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	evaluation, err := s.evaluations.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	if _, err := s.authorize(ctx, actor, evaluation.ClassGroupID); err != nil {
		return err
	}

	graded, err := s.evaluations.CountGrades(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count grades")
	}
	if graded > 0 {
		return appErrors.Clone(appErrors.ErrDependentRecords, "evaluation already has grades")
	}

	if err := s.evaluations.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete evaluation")
	}
	s.logger.Info("evaluation deleted", zap.String("evaluation_id", id))
	return nil
}

func (s *EvaluationService) authorize(ctx context.Context, actor policy.Actor, classGroupID string) (*models.ClassGroupDetail, error) {
	class, err := s.classes.FindByID(ctx, classGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if !policy.CanManageClass(actor, class.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot manage evaluations for this class group")
	}
	return class, nil
}
