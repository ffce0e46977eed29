package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sga-api/internal/models"
)

func TestAttendanceRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("enr-1", date, 2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "enr-1", date, 2)
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	record := &models.Attendance{
		EnrollmentID: "enr-1",
		ClassDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ClassPeriod:  1,
		Status:       models.AttendanceLate,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendances")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	require.NotEmpty(t, record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatusCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow(models.AttendancePresent, 10).
		AddRow(models.AttendanceLate, 2).
		AddRow(models.AttendanceJustified, 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM attendances")).
		WithArgs("enr-1").
		WillReturnRows(rows)

	counts, err := repo.StatusCounts(context.Background(), "enr-1")
	require.NoError(t, err)
	require.Equal(t, 10, counts[models.AttendancePresent])
	require.Equal(t, 2, counts[models.AttendanceLate])
	require.Equal(t, 1, counts[models.AttendanceJustified])
	require.Zero(t, counts[models.AttendanceAbsent])
	require.NoError(t, mock.ExpectationsWereMet())
}
