package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

const testSubjectID = "1b2c3d4e-5f60-4a7b-8c9d-0e1f2a3b4c5d"

type mockClassGroupRepo struct {
	classes  map[string]*models.ClassGroupDetail
	enrolled map[string]int
	nextID   int
}

func (m *mockClassGroupRepo) FindByID(ctx context.Context, id string) (*models.ClassGroupDetail, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassGroupRepo) FindByOffering(ctx context.Context, subjectID, classCode string, semester, year int) (*models.ClassGroup, error) {
	for _, c := range m.classes {
		if c.SubjectID == subjectID && c.ClassCode == classCode && c.Semester == semester && c.Year == year {
			return &c.ClassGroup, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassGroupRepo) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupDetail, int, error) {
	var list []models.ClassGroupDetail
	for _, c := range m.classes {
		list = append(list, *c)
	}
	return list, len(list), nil
}

func (m *mockClassGroupRepo) Create(ctx context.Context, class *models.ClassGroup) error {
	if m.classes == nil {
		m.classes = make(map[string]*models.ClassGroupDetail)
	}
	m.nextID++
	class.ID = string(rune('a' + m.nextID))
	m.classes[class.ID] = &models.ClassGroupDetail{ClassGroup: *class}
	return nil
}

func (m *mockClassGroupRepo) Update(ctx context.Context, class *models.ClassGroup) error {
	if c, ok := m.classes[class.ID]; ok {
		c.ClassGroup = *class
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockClassGroupRepo) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	if c, ok := m.classes[id]; ok {
		c.Status = status
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockClassGroupRepo) CountEnrolled(ctx context.Context, id string) (int, error) {
	return m.enrolled[id], nil
}

type mockSubjectReader struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockTeacherReader struct {
	teachers map[string]*models.TeacherDetail
}

func (m *mockTeacherReader) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func classServiceFixture() (*ClassService, *mockClassGroupRepo) {
	repo := &mockClassGroupRepo{classes: map[string]*models.ClassGroupDetail{}, enrolled: map[string]int{}}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{
		testSubjectID: {ID: testSubjectID, Name: "Data Structures", Active: true},
	}}
	teachers := &mockTeacherReader{teachers: map[string]*models.TeacherDetail{
		testTeacherID: {Teacher: models.Teacher{ID: testTeacherID, Status: models.TeacherStatusActive}},
	}}
	return NewClassService(repo, subjects, teachers, validator.New(), zap.NewNop()), repo
}

func TestClassCreateStartsPlanned(t *testing.T) {
	svc, _ := classServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}

	class, err := svc.Create(context.Background(), actor, CreateClassGroupRequest{
		SubjectID:   testSubjectID,
		TeacherID:   testTeacherID,
		ClassCode:   "A",
		Semester:    1,
		Year:        2025,
		MaxStudents: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusPlanned, class.Status)
}

func TestClassCreateRejectsDuplicateOffering(t *testing.T) {
	svc, _ := classServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}
	req := CreateClassGroupRequest{
		SubjectID:   testSubjectID,
		TeacherID:   testTeacherID,
		ClassCode:   "A",
		Semester:    1,
		Year:        2025,
		MaxStudents: 30,
	}

	_, err := svc.Create(context.Background(), actor, req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), actor, req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestClassStatusTransitions(t *testing.T) {
	svc, repo := classServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}
	repo.classes["c1"] = &models.ClassGroupDetail{
		ClassGroup: models.ClassGroup{ID: "c1", Status: models.ClassStatusPlanned},
	}

	class, err := svc.ChangeStatus(context.Background(), actor, "c1", ClassStatusRequest{Status: models.ClassStatusActive})
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusActive, class.Status)

	_, err = svc.ChangeStatus(context.Background(), actor, "c1", ClassStatusRequest{Status: models.ClassStatusPlanned})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTransition))
}

func TestClassCancelBlockedWhileStudentsEnrolled(t *testing.T) {
	svc, repo := classServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}
	repo.classes["c1"] = &models.ClassGroupDetail{
		ClassGroup: models.ClassGroup{ID: "c1", Status: models.ClassStatusActive},
	}
	repo.enrolled["c1"] = 3

	_, err := svc.ChangeStatus(context.Background(), actor, "c1", ClassStatusRequest{Status: models.ClassStatusCancelled})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDependentRecords))

	repo.enrolled["c1"] = 0
	class, err := svc.ChangeStatus(context.Background(), actor, "c1", ClassStatusRequest{Status: models.ClassStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusCancelled, class.Status)
}

func TestClassUpdateRejectsShrinkBelowEnrollment(t *testing.T) {
	svc, repo := classServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}
	repo.classes["c1"] = &models.ClassGroupDetail{
		ClassGroup:    models.ClassGroup{ID: "c1", Status: models.ClassStatusActive, MaxStudents: 30},
		EnrolledCount: 25,
	}

	smaller := 20
	_, err := svc.Update(context.Background(), actor, "c1", UpdateClassGroupRequest{MaxStudents: &smaller})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	larger := 40
	class, err := svc.Update(context.Background(), actor, "c1", UpdateClassGroupRequest{MaxStudents: &larger})
	require.NoError(t, err)
	assert.Equal(t, 40, class.MaxStudents)
}
