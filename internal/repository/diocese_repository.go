package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

// DioceseRepository manages persistence for dioceses.
type DioceseRepository struct {
	db *sqlx.DB
}

// NewDioceseRepository constructs a new diocese repository.
func NewDioceseRepository(db *sqlx.DB) *DioceseRepository {
	return &DioceseRepository{db: db}
}

// List returns dioceses matching filter criteria.
func (r *DioceseRepository) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Diocese, int, error) {
	base := "FROM dioceses WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, region, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)
	var dioceses []models.Diocese
	if err := r.db.SelectContext(ctx, &dioceses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list dioceses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count dioceses: %w", err)
	}
	return dioceses, total, nil
}

// RefsAll returns every diocese ID without pagination. The scope resolver
// needs the full candidate set; a paged load would silently clamp valid
// selections away.
func (r *DioceseRepository) RefsAll(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM dioceses ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list diocese refs: %w", err)
	}
	return ids, nil
}

// FindByID returns a diocese by ID.
func (r *DioceseRepository) FindByID(ctx context.Context, id string) (*models.Diocese, error) {
	const query = `SELECT id, name, region, created_at, updated_at FROM dioceses WHERE id = $1`
	var diocese models.Diocese
	if err := r.db.GetContext(ctx, &diocese, query, id); err != nil {
		return nil, err
	}
	return &diocese, nil
}

// Create inserts a new diocese.
func (r *DioceseRepository) Create(ctx context.Context, diocese *models.Diocese) error {
	if diocese.ID == "" {
		diocese.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	diocese.CreatedAt = now
	diocese.UpdatedAt = now
	const query = `INSERT INTO dioceses (id, name, region, created_at, updated_at)
VALUES (:id, :name, :region, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, diocese); err != nil {
		return fmt.Errorf("create diocese: %w", err)
	}
	return nil
}

// Update modifies an existing diocese.
func (r *DioceseRepository) Update(ctx context.Context, diocese *models.Diocese) error {
	diocese.UpdatedAt = time.Now().UTC()
	const query = `UPDATE dioceses SET name = :name, region = :region, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, diocese); err != nil {
		return fmt.Errorf("update diocese: %w", err)
	}
	return nil
}

// Delete removes a diocese.
func (r *DioceseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM dioceses WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete diocese: %w", err)
	}
	return nil
}
