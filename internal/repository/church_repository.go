package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

// ChurchRepository manages persistence for churches.
type ChurchRepository struct {
	db *sqlx.DB
}

// NewChurchRepository constructs a new church repository.
func NewChurchRepository(db *sqlx.DB) *ChurchRepository {
	return &ChurchRepository{db: db}
}

// List returns churches matching filter criteria.
func (r *ChurchRepository) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Church, int, error) {
	base := "FROM churches WHERE 1=1"
	var args []interface{}
	if filter.DioceseID != "" {
		base += fmt.Sprintf(" AND diocese_id = $%d", len(args)+1)
		args = append(args, filter.DioceseID)
	}
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

	query := fmt.Sprintf("SELECT id, diocese_id, name, address, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d", base, size, offset)
	var churches []models.Church
	if err := r.db.SelectContext(ctx, &churches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list churches: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count churches: %w", err)
	}
	return churches, total, nil
}

// FindByID returns a church by ID.
func (r *ChurchRepository) FindByID(ctx context.Context, id string) (*models.Church, error) {
	const query = `SELECT id, diocese_id, name, address, created_at, updated_at FROM churches WHERE id = $1`
	var church models.Church
	if err := r.db.GetContext(ctx, &church, query, id); err != nil {
		return nil, err
	}
	return &church, nil
}

// RefsByDioceses returns (church, parent diocese) pairs for the scope
// resolver's candidate sets.
func (r *ChurchRepository) RefsByDioceses(ctx context.Context, dioceseIDs []string) ([]models.ChurchRef, error) {
	query := "SELECT id, diocese_id FROM churches"
	var args []interface{}
	if len(dioceseIDs) > 0 {
		query += " WHERE diocese_id = ANY($1)"
		args = append(args, pq.Array(dioceseIDs))
	}
	var refs []models.ChurchRef
	if err := r.db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("list church refs: %w", err)
	}
	return refs, nil
}

// Create inserts a new church.
func (r *ChurchRepository) Create(ctx context.Context, church *models.Church) error {
	if church.ID == "" {
		church.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	church.CreatedAt = now
	church.UpdatedAt = now
	const query = `INSERT INTO churches (id, diocese_id, name, address, created_at, updated_at)
VALUES (:id, :diocese_id, :name, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, church); err != nil {
		return fmt.Errorf("create church: %w", err)
	}
	return nil
}

// Update modifies an existing church.
func (r *ChurchRepository) Update(ctx context.Context, church *models.Church) error {
	church.UpdatedAt = time.Now().UTC()
	const query = `UPDATE churches SET diocese_id = :diocese_id, name = :name, address = :address, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, church); err != nil {
		return fmt.Errorf("update church: %w", err)
	}
	return nil
}

// Delete removes a church.
func (r *ChurchRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM churches WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete church: %w", err)
	}
	return nil
}
