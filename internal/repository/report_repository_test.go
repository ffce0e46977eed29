package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryStudentCountsByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status AS label, COUNT(*) AS count FROM students GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).
			AddRow("ACTIVE", 80).
			AddRow("GRADUATED", 15).
			AddRow("DROPPED", 5))

	counts, err := repo.StudentCountsByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ACTIVE": 80, "GRADUATED": 15, "DROPPED": 5}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryActiveCourseCountsByInstitution(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN courses c ON c.institution_id = i.id AND c.active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}).
			AddRow("Federal Tech", 10).
			AddRow("New Campus", 0))

	counts, err := repo.ActiveCourseCountsByInstitution(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, counts["New Campus"], "institutions without courses keep a zero row")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCountPendingGradesForTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE cg.teacher_id = $1 AND cg.status = 'ACTIVE'")).
		WithArgs("tch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountPendingGradesForTeacher(context.Background(), "tch-1")
	require.NoError(t, err)
	require.Equal(t, 5, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryCourseCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE active = TRUE) FROM courses")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "active"}).AddRow(12, 10))

	total, active, err := repo.CourseCounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, total)
	require.Equal(t, 10, active)
	require.NoError(t, mock.ExpectationsWereMet())
}
