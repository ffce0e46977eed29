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

// ClassGroupRepository provides database access for class groups.
type ClassGroupRepository struct {
	db *sqlx.DB
}

// NewClassGroupRepository creates a new instance of ClassGroupRepository.
func NewClassGroupRepository(db *sqlx.DB) *ClassGroupRepository {
	return &ClassGroupRepository{db: db}
}

const classGroupColumns = `cg.id, cg.subject_id, cg.teacher_id, cg.class_code, cg.semester, cg.year, cg.max_students, cg.classroom, cg.schedule_info, cg.status, cg.start_date, cg.end_date, cg.created_at, cg.updated_at`

const classGroupDetailQuery = `SELECT ` + classGroupColumns + `,
        s.name AS subject_name, s.code AS subject_code, s.credits AS subject_credits,
        u.full_name AS teacher_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_group_id = cg.id AND e.status = 'ENROLLED') AS enrolled_count
    FROM class_groups cg
    JOIN subjects s ON s.id = cg.subject_id
    JOIN teachers t ON t.id = cg.teacher_id
    JOIN users u ON u.id = t.user_id`

// FindByID returns a class group with joined context.
func (r *ClassGroupRepository) FindByID(ctx context.Context, id string) (*models.ClassGroupDetail, error) {
	query := classGroupDetailQuery + ` WHERE cg.id = $1 LIMIT 1`
	var detail models.ClassGroupDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class group: %w", err)
	}
	return &detail, nil
}

// List returns class groups matching the filter with total count.
func (r *ClassGroupRepository) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroupDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("cg.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("cg.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("cg.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Semester != nil {
		conditions = append(conditions, fmt.Sprintf("cg.semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("cg.year = $%d", len(args)+1))
		args = append(args, *filter.Year)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s%s ORDER BY cg.year DESC, cg.semester DESC, cg.class_code ASC LIMIT %d OFFSET %d", classGroupDetailQuery, where, limit, offset)

	var classes []models.ClassGroupDetail
	if err := r.db.SelectContext(ctx, &classes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list class groups: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM class_groups cg" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class groups: %w", err)
	}
	return classes, total, nil
}

// Create inserts a new class group.
func (r *ClassGroupRepository) Create(ctx context.Context, class *models.ClassGroup) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO class_groups (id, subject_id, teacher_id, class_code, semester, year, max_students, classroom, schedule_info, status, start_date, end_date, created_at, updated_at) VALUES (:id, :subject_id, :teacher_id, :class_code, :semester, :year, :max_students, :classroom, :schedule_info, :status, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class group: %w", err)
	}
	return nil
}

// Update updates mutable fields of a class group.
func (r *ClassGroupRepository) Update(ctx context.Context, class *models.ClassGroup) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_groups SET teacher_id = :teacher_id, max_students = :max_students, classroom = :classroom, schedule_info = :schedule_info, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class group: %w", err)
	}
	return nil
}

// UpdateStatus moves a class group to a new lifecycle status.
func (r *ClassGroupRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE class_groups SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class group status: %w", err)
	}
	return nil
}

// CountEnrolled returns the number of enrollments with status ENROLLED.
func (r *ClassGroupRepository) CountEnrolled(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_group_id = $1 AND status = 'ENROLLED'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count enrolled: %w", err)
	}
	return count, nil
}

// FindByOffering returns a class group by its unique offering key.
func (r *ClassGroupRepository) FindByOffering(ctx context.Context, subjectID, classCode string, semester, year int) (*models.ClassGroup, error) {
	const query = `SELECT id, subject_id, teacher_id, class_code, semester, year, max_students, classroom, schedule_info, status, start_date, end_date, created_at, updated_at FROM class_groups WHERE subject_id = $1 AND class_code = $2 AND semester = $3 AND year = $4 LIMIT 1`
	var class models.ClassGroup
	if err := r.db.GetContext(ctx, &class, query, subjectID, classCode, semester, year); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class group by offering: %w", err)
	}
	return &class, nil
}
