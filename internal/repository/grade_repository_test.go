package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sga-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGradeRepositoryUpsertRecomputesFinalGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	score := 8.0
	grade := &models.Grade{
		EnrollmentID: "enr-1",
		EvaluationID: "ev-1",
		Score:        &score,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT g.score, ev.weight")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"score", "weight"}).
			AddRow(8.0, 2.0).
			AddRow(5.0, 1.0))
	// (8*2 + 5*1) / 3 = 7.00 persisted onto the enrollment.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET final_grade = $2")).
		WithArgs("enr-1", 7.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Upsert(context.Background(), grade)
	require.NoError(t, err)
	require.NotEmpty(t, grade.ID)
	require.NotNil(t, grade.GradedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryUpsertNullsFinalGradeWhenNothingScored(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	grade := &models.Grade{
		EnrollmentID: "enr-1",
		EvaluationID: "ev-1",
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT g.score, ev.weight")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"score", "weight"}).
			AddRow(nil, 2.0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET final_grade = $2")).
		WithArgs("enr-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Upsert(context.Background(), grade)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryDeleteRecomputesFinalGrade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM grades WHERE id = $1 RETURNING enrollment_id")).
		WithArgs("grd-1").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id"}).AddRow("enr-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT g.score, ev.weight")).
		WithArgs("enr-1").
		WillReturnRows(sqlmock.NewRows([]string{"score", "weight"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET final_grade = $2")).
		WithArgs("enr-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "grd-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryBatchUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	score := 9.0
	grades := []models.Grade{
		{EnrollmentID: "enr-1", EvaluationID: "ev-1", Score: &score},
		{EnrollmentID: "enr-2", EvaluationID: "ev-1", Score: &score},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.BatchUpsert(context.Background(), grades)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryCountPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountPending(context.Background(), "class-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
