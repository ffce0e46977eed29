package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type teacherRepo interface {
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
	List(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherDetail, int, error)
	CreateWithUser(ctx context.Context, user *models.User, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	UpdateStatus(ctx context.Context, id string, status models.TeacherStatus) error
}

// CreateTeacherRequest registers a teacher together with their user account.
type CreateTeacherRequest struct {
	Email          string     `json:"email" validate:"required,email"`
	Password       string     `json:"password" validate:"required,min=8"`
	FullName       string     `json:"full_name" validate:"required,min=2,max=150"`
	Phone          *string    `json:"phone,omitempty"`
	EmployeeNumber string     `json:"employee_number" validate:"required,min=2,max=30"`
	Department     *string    `json:"department,omitempty"`
	Specialization *string    `json:"specialization,omitempty"`
	AcademicDegree string     `json:"academic_degree" validate:"required,min=2,max=100"`
	HireDate       *time.Time `json:"hire_date,omitempty"`
	DocumentType   *string    `json:"document_type,omitempty"`
	DocumentNumber *string    `json:"document_number,omitempty"`
}

// UpdateTeacherRequest updates mutable teacher fields. EmployeeNumber is
// immutable once assigned.
type UpdateTeacherRequest struct {
	Department     *string `json:"department,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	AcademicDegree *string `json:"academic_degree,omitempty" validate:"omitempty,min=2,max=100"`
	DocumentType   *string `json:"document_type,omitempty"`
	DocumentNumber *string `json:"document_number,omitempty"`
}

// TeacherStatusRequest moves a teacher to a new standing.
type TeacherStatusRequest struct {
	Status models.TeacherStatus `json:"status" validate:"required"`
}

// TeacherService manages teachers and their user accounts.
type TeacherService struct {
	teachers  teacherRepo
	users     emailChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs TeacherService.
func NewTeacherService(teachers teacherRepo, users emailChecker, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{teachers: teachers, users: users, validator: validate, logger: logger}
}

// Create registers a teacher and their account in one transaction.
func (s *TeacherService) Create(ctx context.Context, actor policy.Actor, req CreateTeacherRequest) (*models.TeacherDetail, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create teachers")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	hireDate := time.Now().UTC()
	if req.HireDate != nil {
		hireDate = *req.HireDate
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleTeacher,
		Phone:        req.Phone,
		Active:       true,
	}
	teacher := &models.Teacher{
		EmployeeNumber: req.EmployeeNumber,
		Department:     req.Department,
		Specialization: req.Specialization,
		AcademicDegree: req.AcademicDegree,
		HireDate:       hireDate,
		Status:         models.TeacherStatusActive,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
	}
	if err := s.teachers.CreateWithUser(ctx, user, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID), zap.String("employee_number", teacher.EmployeeNumber))

	return &models.TeacherDetail{
		Teacher:  *teacher,
		FullName: user.FullName,
		Email:    user.Email,
	}, nil
}

// GetByID returns one teacher.
func (s *TeacherService) GetByID(ctx context.Context, actor policy.Actor, id string) (*models.TeacherDetail, error) {
	if !policy.Allows(actor.Role, policy.TeacherOrAbove) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view teachers")
	}
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// List returns teachers matching the filter.
func (s *TeacherService) List(ctx context.Context, actor policy.Actor, filter models.TeacherFilter) ([]models.TeacherDetail, int, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "cannot list teachers")
	}
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, total, nil
}

// Update changes mutable teacher fields.
func (s *TeacherService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateTeacherRequest) (*models.TeacherDetail, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update teachers")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	detail, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	teacher := detail.Teacher

	if req.Department != nil {
		teacher.Department = req.Department
	}
	if req.Specialization != nil {
		teacher.Specialization = req.Specialization
	}
	if req.AcademicDegree != nil {
		teacher.AcademicDegree = *req.AcademicDegree
	}
	if req.DocumentType != nil {
		teacher.DocumentType = req.DocumentType
	}
	if req.DocumentNumber != nil {
		teacher.DocumentNumber = req.DocumentNumber
	}

	if err := s.teachers.Update(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	detail.Teacher = teacher
	return detail, nil
}

// ChangeStatus moves a teacher to a new standing.
func (s *TeacherService) ChangeStatus(ctx context.Context, actor policy.Actor, id string, req TeacherStatusRequest) (*models.TeacherDetail, error) {
	if !policy.Allows(actor.Role, policy.AdminOnly) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change teacher status")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid teacher status")
	}

	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if !teacher.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "teacher cannot move to this status")
	}

	if err := s.teachers.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher status")
	}
	s.logger.Info("teacher status changed",
		zap.String("teacher_id", id),
		zap.String("from", string(teacher.Status)),
		zap.String("to", string(req.Status)))
	teacher.Status = req.Status
	return teacher, nil
}
