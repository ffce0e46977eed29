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

type institutionRepo interface {
	FindByID(ctx context.Context, id string) (*models.Institution, error)
	FindByCode(ctx context.Context, code string) (*models.Institution, error)
	List(ctx context.Context, activeOnly bool, page, pageSize int) ([]models.Institution, int, error)
	Create(ctx context.Context, inst *models.Institution) error
	Update(ctx context.Context, inst *models.Institution) error
	Delete(ctx context.Context, id string) error
}

// CreateInstitutionRequest registers a new institution.
type CreateInstitutionRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=200"`
	Code    string  `json:"code" validate:"required,min=2,max=20"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Website *string `json:"website,omitempty" validate:"omitempty,url"`
}

// UpdateInstitutionRequest updates mutable institution fields. Code is
// immutable once assigned.
type UpdateInstitutionRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Website *string `json:"website,omitempty" validate:"omitempty,url"`
	Active  *bool   `json:"active,omitempty"`
}

// InstitutionService manages institutions.
type InstitutionService struct {
	institutions institutionRepo
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewInstitutionService constructs InstitutionService.
func NewInstitutionService(institutions institutionRepo, validate *validator.Validate, logger *zap.Logger) *InstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstitutionService{institutions: institutions, validator: validate, logger: logger}
}

// Create registers a new institution. The code must be unique.
func (s *InstitutionService) Create(ctx context.Context, actor policy.Actor, req CreateInstitutionRequest) (*models.Institution, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create institutions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}

	if _, err := s.institutions.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "institution code already in use")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check institution code")
	}

	inst := &models.Institution{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Phone:   req.Phone,
		Email:   req.Email,
		Website: req.Website,
		Active:  true,
	}
	if err := s.institutions.Create(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create institution")
	}
	s.logger.Info("institution created", zap.String("institution_id", inst.ID), zap.String("code", inst.Code))
	return inst, nil
}

// GetByID returns one institution.
func (s *InstitutionService) GetByID(ctx context.Context, id string) (*models.Institution, error) {
	inst, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	return inst, nil
}

// List returns institutions, optionally only active ones.
func (s *InstitutionService) List(ctx context.Context, activeOnly bool, page, pageSize int) ([]models.Institution, int, error) {
	institutions, total, err := s.institutions.List(ctx, activeOnly, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}
	return institutions, total, nil
}

// Update changes mutable institution fields.
func (s *InstitutionService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateInstitutionRequest) (*models.Institution, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update institutions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid institution payload")
	}

	inst, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}

	if req.Name != nil {
		inst.Name = *req.Name
	}
	if req.Address != nil {
		inst.Address = req.Address
	}
	if req.City != nil {
		inst.City = req.City
	}
	if req.State != nil {
		inst.State = req.State
	}
	if req.Phone != nil {
		inst.Phone = req.Phone
	}
	if req.Email != nil {
		inst.Email = req.Email
	}
	if req.Website != nil {
		inst.Website = req.Website
	}
	if req.Active != nil {
		inst.Active = *req.Active
	}
	if err := s.institutions.Update(ctx, inst); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update institution")
	}
	return inst, nil
}

// Deactivate soft-deletes an institution.
func (s *InstitutionService) Deactivate(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate institutions")
	}
	if _, err := s.institutions.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "institution not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution")
	}
	if err := s.institutions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate institution")
	}
	return nil
}
