package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sga-api/internal/grading"
	"github.com/noah-isme/sga-api/internal/models"
)

// GradeRepository handles grade persistence. Every mutation recomputes the
// parent enrollment's final_grade inside the same transaction, so no reader
// ever observes a grade row without the matching aggregate.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `g.id, g.enrollment_id, g.evaluation_id, g.score, g.comments, g.graded_by, g.graded_at, g.created_at, g.updated_at`

// FindByID returns a grade by identifier.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades g WHERE g.id = $1 LIMIT 1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// ListForEnrollment returns an enrollment's grades joined to their
// evaluations.
func (r *GradeRepository) ListForEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error) {
	query := `SELECT ` + gradeColumns + `,
            ev.name AS evaluation_name, ev.type AS evaluation_type, ev.weight AS evaluation_weight, ev.max_score AS max_score
        FROM grades g
        JOIN evaluations ev ON ev.id = g.evaluation_id
        WHERE g.enrollment_id = $1
        ORDER BY ev.date ASC NULLS LAST, ev.created_at ASC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list grades for enrollment: %w", err)
	}
	return grades, nil
}

// ListForClass returns every grade of a class group's enrolled students.
func (r *GradeRepository) ListForClass(ctx context.Context, classGroupID string) ([]models.Grade, error) {
	query := `SELECT ` + gradeColumns + `
        FROM grades g
        JOIN enrollments e ON e.id = g.enrollment_id
        WHERE e.class_group_id = $1`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, classGroupID); err != nil {
		return nil, fmt.Errorf("list grades for class: %w", err)
	}
	return grades, nil
}

// Upsert creates or replaces the grade for one enrollment and evaluation
// pair, then refreshes the enrollment's final grade in the same transaction.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert grade: %w", err)
	}
	if err := upsertGradeTx(ctx, tx, grade); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := recomputeFinalGradeTx(ctx, tx, grade.EnrollmentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert grade: %w", err)
	}
	return nil
}

// BatchUpsert writes many grades in one transaction and refreshes every
// touched enrollment. All-or-nothing: any failure rolls back the whole batch.
func (r *GradeRepository) BatchUpsert(ctx context.Context, grades []models.Grade) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin batch grades: %w", err)
	}

	touched := make(map[string]struct{}, len(grades))
	for i := range grades {
		if err := upsertGradeTx(ctx, tx, &grades[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
		touched[grades[i].EnrollmentID] = struct{}{}
	}
	for enrollmentID := range touched {
		if err := recomputeFinalGradeTx(ctx, tx, enrollmentID); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch grades: %w", err)
	}
	return nil
}

// Delete removes a grade row and refreshes the parent enrollment's final
// grade in the same transaction.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete grade: %w", err)
	}

	var enrollmentID string
	const deleteQuery = `DELETE FROM grades WHERE id = $1 RETURNING enrollment_id`
	if err := tx.GetContext(ctx, &enrollmentID, deleteQuery, id); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("delete grade: %w", err)
	}

	if err := recomputeFinalGradeTx(ctx, tx, enrollmentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete grade: %w", err)
	}
	return nil
}

// ListPending returns the (enrollment, evaluation) pairs of a class group
// with no grade row among enrolled students. A row with a null score is not
// pending.
func (r *GradeRepository) ListPending(ctx context.Context, classGroupID string) ([]models.PendingGrade, error) {
	const query = `SELECT e.id AS enrollment_id, ev.id AS evaluation_id, u.full_name AS student_name, ev.name AS evaluation_name
        FROM enrollments e
        JOIN students st ON st.id = e.student_id
        JOIN users u ON u.id = st.user_id
        CROSS JOIN evaluations ev
        WHERE e.class_group_id = $1 AND ev.class_group_id = $1 AND e.status = 'ENROLLED'
          AND NOT EXISTS (SELECT 1 FROM grades g WHERE g.enrollment_id = e.id AND g.evaluation_id = ev.id)
        ORDER BY u.full_name ASC, ev.name ASC`
	rows, err := r.db.QueryxContext(ctx, query, classGroupID)
	if err != nil {
		return nil, fmt.Errorf("list pending grades: %w", err)
	}
	defer rows.Close()

	var pending []models.PendingGrade
	for rows.Next() {
		var p models.PendingGrade
		if err := rows.Scan(&p.EnrollmentID, &p.EvaluationID, &p.StudentName, &p.EvaluationName); err != nil {
			return nil, fmt.Errorf("scan pending grade: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, nil
}

// CountPending returns how many (enrollment, evaluation) pairs of a class
// group still lack a grade row.
func (r *GradeRepository) CountPending(ctx context.Context, classGroupID string) (int, error) {
	const query = `SELECT COUNT(*)
        FROM enrollments e
        CROSS JOIN evaluations ev
        WHERE e.class_group_id = $1 AND ev.class_group_id = $1 AND e.status = 'ENROLLED'
          AND NOT EXISTS (SELECT 1 FROM grades g WHERE g.enrollment_id = e.id AND g.evaluation_id = ev.id)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classGroupID); err != nil {
		return 0, fmt.Errorf("count pending grades: %w", err)
	}
	return count, nil
}

func upsertGradeTx(ctx context.Context, tx *sqlx.Tx, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	if grade.GradedAt == nil {
		grade.GradedAt = &now
	}

	const query = `INSERT INTO grades (id, enrollment_id, evaluation_id, score, comments, graded_by, graded_at, created_at, updated_at)
        VALUES (:id, :enrollment_id, :evaluation_id, :score, :comments, :graded_by, :graded_at, :created_at, :updated_at)
        ON CONFLICT (enrollment_id, evaluation_id)
        DO UPDATE SET score = EXCLUDED.score, comments = EXCLUDED.comments, graded_by = EXCLUDED.graded_by, graded_at = EXCLUDED.graded_at, updated_at = EXCLUDED.updated_at`
	if _, err := tx.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}
	return nil
}

// recomputeFinalGradeTx reloads the enrollment's grades joined to their
// evaluations and persists the weighted mean onto the enrollment row.
func recomputeFinalGradeTx(ctx context.Context, tx *sqlx.Tx, enrollmentID string) error {
	const selectQuery = `SELECT g.score, ev.weight
        FROM grades g
        JOIN evaluations ev ON ev.id = g.evaluation_id
        WHERE g.enrollment_id = $1`
	rows, err := tx.QueryxContext(ctx, selectQuery, enrollmentID)
	if err != nil {
		return fmt.Errorf("load grades for recompute: %w", err)
	}
	defer rows.Close()

	var scores []grading.WeightedScore
	for rows.Next() {
		var ws grading.WeightedScore
		if err := rows.Scan(&ws.Score, &ws.Weight); err != nil {
			return fmt.Errorf("scan grade for recompute: %w", err)
		}
		scores = append(scores, ws)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate grades for recompute: %w", err)
	}

	finalGrade := grading.FinalGrade(scores)
	const updateQuery = `UPDATE enrollments SET final_grade = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, enrollmentID, finalGrade, time.Now().UTC()); err != nil {
		return fmt.Errorf("update final grade: %w", err)
	}
	return nil
}
