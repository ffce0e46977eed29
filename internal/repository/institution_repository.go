package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sga-api/internal/models"
)

// InstitutionRepository provides database access for institutions.
type InstitutionRepository struct {
	db *sqlx.DB
}

// NewInstitutionRepository creates a new instance of InstitutionRepository.
func NewInstitutionRepository(db *sqlx.DB) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

const institutionColumns = `id, name, code, address, city, state, phone, email, website, active, created_at, updated_at`

// FindByID returns an institution by identifier.
func (r *InstitutionRepository) FindByID(ctx context.Context, id string) (*models.Institution, error) {
	query := fmt.Sprintf(`SELECT %s FROM institutions WHERE id = $1 LIMIT 1`, institutionColumns)
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find institution: %w", err)
	}
	return &inst, nil
}

// FindByCode returns an institution by its unique code.
func (r *InstitutionRepository) FindByCode(ctx context.Context, code string) (*models.Institution, error) {
	query := fmt.Sprintf(`SELECT %s FROM institutions WHERE code = $1 LIMIT 1`, institutionColumns)
	var inst models.Institution
	if err := r.db.GetContext(ctx, &inst, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find institution by code: %w", err)
	}
	return &inst, nil
}

// List returns institutions with total count.
func (r *InstitutionRepository) List(ctx context.Context, activeOnly bool, page, pageSize int) ([]models.Institution, int, error) {
	baseQuery := `FROM institutions WHERE 1=1`
	var args []interface{}
	if activeOnly {
		baseQuery += " AND active = TRUE"
	}

	limit, offset := pageBounds(page, pageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", institutionColumns, baseQuery, limit, offset)

	var institutions []models.Institution
	if err := r.db.SelectContext(ctx, &institutions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list institutions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count institutions: %w", err)
	}
	return institutions, total, nil
}

// Create inserts a new institution.
func (r *InstitutionRepository) Create(ctx context.Context, inst *models.Institution) error {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now

	const query = `INSERT INTO institutions (id, name, code, address, city, state, phone, email, website, active, created_at, updated_at) VALUES (:id, :name, :code, :address, :city, :state, :phone, :email, :website, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("create institution: %w", err)
	}
	return nil
}

// Update updates mutable fields of an institution.
func (r *InstitutionRepository) Update(ctx context.Context, inst *models.Institution) error {
	inst.UpdatedAt = time.Now().UTC()
	const query = `UPDATE institutions SET name = :name, address = :address, city = :city, state = :state, phone = :phone, email = :email, website = :website, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("update institution: %w", err)
	}
	return nil
}

// Delete performs a soft delete by marking the institution inactive.
func (r *InstitutionRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE institutions SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete institution: %w", err)
	}
	return nil
}
