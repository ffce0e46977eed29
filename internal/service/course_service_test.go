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

const testInstitutionID = "3d4e5f6a-7b8c-4d9e-8f0a-1b2c3d4e5f6a"

type mockCourseRepo struct {
	courses        map[string]*models.Course
	activeStudents map[string]int
	nextID         int
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, institutionID, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.InstitutionID == institutionID && c.Code == code {
			return c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var list []models.Course
	for _, c := range m.courses {
		list = append(list, *c)
	}
	return list, len(list), nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	m.nextID++
	course.ID = string(rune('a' + m.nextID))
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *course
	m.courses[course.ID] = &stored
	return nil
}

func (m *mockCourseRepo) Deactivate(ctx context.Context, id string) error {
	if c, ok := m.courses[id]; ok {
		c.Active = false
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockCourseRepo) CountActiveStudents(ctx context.Context, id string) (int, error) {
	return m.activeStudents[id], nil
}

type mockInstitutionReader struct {
	institutions map[string]*models.Institution
}

func (m *mockInstitutionReader) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	if i, ok := m.institutions[id]; ok {
		return i, nil
	}
	return nil, sql.ErrNoRows
}

func courseServiceFixture() (*CourseService, *mockCourseRepo) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{}, activeStudents: map[string]int{}}
	institutions := &mockInstitutionReader{institutions: map[string]*models.Institution{
		testInstitutionID: {ID: testInstitutionID, Name: "State University", Active: true},
	}}
	return NewCourseService(repo, institutions, validator.New(), zap.NewNop()), repo
}

func TestCourseCreateRequiresAdmin(t *testing.T) {
	svc, _ := courseServiceFixture()
	req := CreateCourseRequest{
		InstitutionID:     testInstitutionID,
		Name:              "Computer Science",
		Code:              "CS",
		DurationSemesters: 8,
		DegreeType:        models.DegreeBachelor,
	}

	_, err := svc.Create(context.Background(), policy.Actor{Role: models.RoleCoordinator}, req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	course, err := svc.Create(context.Background(), policy.Actor{Role: models.RoleAdmin}, req)
	require.NoError(t, err)
	assert.True(t, course.Active)
}

func TestCourseCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := courseServiceFixture()
	admin := policy.Actor{Role: models.RoleAdmin}
	req := CreateCourseRequest{
		InstitutionID:     testInstitutionID,
		Name:              "Computer Science",
		Code:              "CS",
		DurationSemesters: 8,
		DegreeType:        models.DegreeBachelor,
	}

	_, err := svc.Create(context.Background(), admin, req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), admin, req)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestCourseDeactivateBlockedByActiveStudents(t *testing.T) {
	svc, repo := courseServiceFixture()
	admin := policy.Actor{Role: models.RoleAdmin}
	repo.courses["c1"] = &models.Course{ID: "c1", InstitutionID: testInstitutionID, Code: "CS", Active: true}
	repo.activeStudents["c1"] = 12

	err := svc.Deactivate(context.Background(), admin, "c1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDependentRecords))
	assert.True(t, repo.courses["c1"].Active)

	repo.activeStudents["c1"] = 0
	require.NoError(t, svc.Deactivate(context.Background(), admin, "c1"))
	assert.False(t, repo.courses["c1"].Active)
}
