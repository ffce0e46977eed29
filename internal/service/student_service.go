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

type studentRepo interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	FindByNumber(ctx context.Context, number string) (*models.StudentDetail, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
}

type emailChecker interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// CreateStudentRequest registers a student together with their user account.
type CreateStudentRequest struct {
	Email          string     `json:"email" validate:"required,email"`
	Password       string     `json:"password" validate:"required,min=8"`
	FullName       string     `json:"full_name" validate:"required,min=2,max=150"`
	Phone          *string    `json:"phone,omitempty"`
	StudentNumber  string     `json:"student_number" validate:"required,min=2,max=30"`
	CourseID       string     `json:"course_id" validate:"required,uuid4"`
	EnrollmentDate *time.Time `json:"enrollment_date,omitempty"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	DocumentType   *string    `json:"document_type,omitempty"`
	DocumentNumber *string    `json:"document_number,omitempty"`
	Address        *string    `json:"address,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
}

// UpdateStudentRequest updates mutable student fields. StudentNumber is
// immutable once assigned.
type UpdateStudentRequest struct {
	CourseID       *string    `json:"course_id,omitempty" validate:"omitempty,uuid4"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	DocumentType   *string    `json:"document_type,omitempty"`
	DocumentNumber *string    `json:"document_number,omitempty"`
	Address        *string    `json:"address,omitempty"`
	City           *string    `json:"city,omitempty"`
	State          *string    `json:"state,omitempty"`
}

// StudentStatusRequest moves a student to a new standing.
type StudentStatusRequest struct {
	Status models.StudentStatus `json:"status" validate:"required"`
}

// StudentService manages students and their user accounts.
type StudentService struct {
	students  studentRepo
	users     emailChecker
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(students studentRepo, users emailChecker, courses courseReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, users: users, courses: courses, validator: validate, logger: logger}
}

// Create registers a student and their account in one transaction. The
// student number and email must be unique and the course must be active.
func (s *StudentService) Create(ctx context.Context, actor policy.Actor, req CreateStudentRequest) (*models.StudentDetail, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot create students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
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

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if _, err := s.students.FindByNumber(ctx, req.StudentNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number already in use")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	enrollmentDate := time.Now().UTC()
	if req.EnrollmentDate != nil {
		enrollmentDate = *req.EnrollmentDate
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         models.RoleStudent,
		Phone:        req.Phone,
		Active:       true,
	}
	student := &models.Student{
		StudentNumber:  req.StudentNumber,
		CourseID:       req.CourseID,
		EnrollmentDate: enrollmentDate,
		Status:         models.StudentStatusActive,
		BirthDate:      req.BirthDate,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
	}
	if err := s.students.CreateWithUser(ctx, user, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("student_number", student.StudentNumber))

	return &models.StudentDetail{
		Student:    *student,
		FullName:   user.FullName,
		Email:      user.Email,
		CourseName: course.Name,
	}, nil
}

// GetByID returns one student. Students may only read themselves.
func (s *StudentService) GetByID(ctx context.Context, actor policy.Actor, id string) (*models.StudentDetail, error) {
	if !policy.CanViewStudent(actor, id) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this student")
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, actor policy.Actor, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	if !policy.Allows(actor.Role, policy.TeacherOrAbove) {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, "cannot list students")
	}
	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Update changes mutable student fields.
func (s *StudentService) Update(ctx context.Context, actor policy.Actor, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot update students")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	detail, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	student := detail.Student

	if req.CourseID != nil && *req.CourseID != student.CourseID {
		course, err := s.courses.FindByID(ctx, *req.CourseID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if !course.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course is inactive")
		}
		student.CourseID = *req.CourseID
		detail.CourseName = course.Name
	}
	if req.BirthDate != nil {
		student.BirthDate = req.BirthDate
	}
	if req.DocumentType != nil {
		student.DocumentType = req.DocumentType
	}
	if req.DocumentNumber != nil {
		student.DocumentNumber = req.DocumentNumber
	}
	if req.Address != nil {
		student.Address = req.Address
	}
	if req.City != nil {
		student.City = req.City
	}
	if req.State != nil {
		student.State = req.State
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	detail.Student = student
	return detail, nil
}

// ChangeStatus moves a student to a new standing. GRADUATED and DROPPED are
// terminal.
func (s *StudentService) ChangeStatus(ctx context.Context, actor policy.Actor, id string, req StudentStatusRequest) (*models.StudentDetail, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change student status")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student status")
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "student cannot move to this status")
	}

	if err := s.students.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	s.logger.Info("student status changed",
		zap.String("student_id", id),
		zap.String("from", string(student.Status)),
		zap.String("to", string(req.Status)))
	student.Status = req.Status
	return student, nil
}
