package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sga-api/internal/models"
)

// EnrollmentRepository provides database access for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new instance of EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `e.id, e.student_id, e.class_group_id, e.enrollment_date, e.status, e.final_grade, e.final_status, e.created_at, e.updated_at`

const enrollmentDetailQuery = `SELECT ` + enrollmentColumns + `,
        u.full_name AS student_name, st.student_number AS student_number,
        s.name AS subject_name, s.code AS subject_code, s.credits AS credits,
        cg.class_code AS class_code, cg.semester AS semester, cg.year AS year
    FROM enrollments e
    JOIN students st ON st.id = e.student_id
    JOIN users u ON u.id = st.user_id
    JOIN class_groups cg ON cg.id = e.class_group_id
    JOIN subjects s ON s.id = cg.subject_id`

// FindByID returns an enrollment with joined context.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := enrollmentDetailQuery + ` WHERE e.id = $1 LIMIT 1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &detail, nil
}

// FindByStudentAndClass returns the enrollment linking a student to a class
// group, if one exists.
func (r *EnrollmentRepository) FindByStudentAndClass(ctx context.Context, studentID, classGroupID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_group_id, enrollment_date, status, final_grade, final_status, created_at, updated_at FROM enrollments WHERE student_id = $1 AND class_group_id = $2 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, classGroupID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment by student and class: %w", err)
	}
	return &enrollment, nil
}

// List returns enrollments matching the filter with total count.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassGroupID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_group_id = $%d", len(args)+1))
		args = append(args, filter.ClassGroupID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY e.enrollment_date DESC LIMIT %d OFFSET %d", enrollmentDetailQuery, where, limit, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM enrollments e" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// ListByStudent returns every enrollment of a student with joined subject
// and term context, for transcript building.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailQuery + ` WHERE e.student_id = $1 ORDER BY cg.year ASC, cg.semester ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return enrollments, nil
}

// ListByClass returns enrollments of a class group, optionally restricted to
// one status.
func (r *EnrollmentRepository) ListByClass(ctx context.Context, classGroupID string, status *models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	query := enrollmentDetailQuery + ` WHERE e.class_group_id = $1`
	args := []interface{}{classGroupID}
	if status != nil {
		query += " AND e.status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY u.full_name ASC"

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments by class: %w", err)
	}
	return enrollments, nil
}

// Create inserts a new enrollment guarded by the class capacity. The class
// group row is locked for the duration of the transaction so concurrent
// enrollments cannot oversubscribe a class. Returns sql.ErrNoRows when the
// class group does not exist and ErrClassFull when the class is at capacity.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll: %w", err)
	}

	var maxStudents int
	const lockQuery = `SELECT max_students FROM class_groups WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &maxStudents, lockQuery, enrollment.ClassGroupID); err != nil {
		tx.Rollback() //nolint:errcheck
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock class group: %w", err)
	}

	var enrolled int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE class_group_id = $1 AND status = 'ENROLLED'`
	if err := tx.GetContext(ctx, &enrolled, countQuery, enrollment.ClassGroupID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("count enrolled: %w", err)
	}
	if enrolled >= maxStudents {
		tx.Rollback() //nolint:errcheck
		return ErrClassFull
	}

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = now
	}
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	const insertQuery = `INSERT INTO enrollments (id, student_id, class_group_id, enrollment_date, status, final_grade, final_status, created_at, updated_at) VALUES (:id, :student_id, :class_group_id, :enrollment_date, :status, :final_grade, :final_status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, enrollment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enroll: %w", err)
	}
	return nil
}

// UpdateStatus moves an enrollment to a new lifecycle status and records the
// final outcome.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, finalStatus models.FinalStatus) error {
	const query = `UPDATE enrollments SET status = $2, final_status = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, finalStatus, time.Now().UTC()); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// CountEnrolledByClass returns the enrolled headcount per class group id.
func (r *EnrollmentRepository) CountEnrolledByClass(ctx context.Context, classGroupIDs []string) (map[string]int, error) {
	if len(classGroupIDs) == 0 {
		return map[string]int{}, nil
	}
	placeholders := make([]string, len(classGroupIDs))
	args := make([]interface{}, len(classGroupIDs))
	for i, id := range classGroupIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT class_group_id, COUNT(*) AS count FROM enrollments WHERE status = 'ENROLLED' AND class_group_id IN (%s) GROUP BY class_group_id`, strings.Join(placeholders, ","))

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count enrolled by class: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int, len(classGroupIDs))
	for rows.Next() {
		var classGroupID string
		var count int
		if err := rows.Scan(&classGroupID, &count); err != nil {
			return nil, fmt.Errorf("scan enrolled count: %w", err)
		}
		result[classGroupID] = count
	}
	return result, nil
}
