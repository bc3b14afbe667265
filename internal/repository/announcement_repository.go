package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

const announcementColumns = `id, title, description, types, target_roles, publish_from, publish_to,
is_deleted, deactivation_reason, deactivated_at, deactivated_by, created_by, created_at, updated_at`

// scopeTables maps each targeting dimension to its junction table.
var scopeTables = []struct {
	table string
	ids   func(models.AnnouncementScope) []string
}{
	{"announcement_diocese_scope", func(s models.AnnouncementScope) []string { return s.DioceseIDs }},
	{"announcement_church_scope", func(s models.AnnouncementScope) []string { return s.ChurchIDs }},
	{"announcement_class_scope", func(s models.AnnouncementScope) []string { return s.ClassIDs }},
}

// AnnouncementRepository provides persistence for announcements and their
// scope junction rows.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements ordered by creation time descending.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM announcements ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		announcementColumns, size, offset)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM announcements"); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// ListVisible returns announcements currently active for the given roles and
// hierarchy position. Class scope rows, when present, override church rows,
// which override diocese rows; an announcement with no scope rows at all is
// visible everywhere.
func (r *AnnouncementRepository) ListVisible(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error) {
	roles := make([]string, 0, len(filter.Roles))
	for _, role := range filter.Roles {
		roles = append(roles, string(role))
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM announcements a
WHERE a.is_deleted = FALSE
  AND a.publish_from <= NOW()
  AND (a.publish_to IS NULL OR a.publish_to >= NOW())
  AND a.target_roles && $1
  AND (
    (EXISTS (SELECT 1 FROM announcement_class_scope cs WHERE cs.announcement_id = a.id)
      AND EXISTS (SELECT 1 FROM announcement_class_scope cs WHERE cs.announcement_id = a.id AND cs.entity_id = ANY($2)))
    OR (NOT EXISTS (SELECT 1 FROM announcement_class_scope cs WHERE cs.announcement_id = a.id)
      AND EXISTS (SELECT 1 FROM announcement_church_scope hs WHERE hs.announcement_id = a.id)
      AND EXISTS (SELECT 1 FROM announcement_church_scope hs WHERE hs.announcement_id = a.id AND hs.entity_id = $3))
    OR (NOT EXISTS (SELECT 1 FROM announcement_class_scope cs WHERE cs.announcement_id = a.id)
      AND NOT EXISTS (SELECT 1 FROM announcement_church_scope hs WHERE hs.announcement_id = a.id)
      AND EXISTS (SELECT 1 FROM announcement_diocese_scope ds WHERE ds.announcement_id = a.id)
      AND EXISTS (SELECT 1 FROM announcement_diocese_scope ds WHERE ds.announcement_id = a.id AND ds.entity_id = $4))
    OR (NOT EXISTS (SELECT 1 FROM announcement_class_scope cs WHERE cs.announcement_id = a.id)
      AND NOT EXISTS (SELECT 1 FROM announcement_church_scope hs WHERE hs.announcement_id = a.id)
      AND NOT EXISTS (SELECT 1 FROM announcement_diocese_scope ds WHERE ds.announcement_id = a.id))
  )
ORDER BY a.publish_from DESC
LIMIT %d`, announcementColumns, size)

	var announcements []models.Announcement
	err := r.db.SelectContext(ctx, &announcements, query,
		pq.Array(roles), pq.Array(filter.ClassIDs), filter.ChurchID, filter.DioceseID)
	if err != nil {
		return nil, fmt.Errorf("list visible announcements: %w", err)
	}
	return announcements, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements WHERE id = $1", announcementColumns)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement and its scope rows in one transaction.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement, scope models.AnnouncementScope) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create announcement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO announcements (id, title, description, types, target_roles, publish_from, publish_to,
is_deleted, deactivation_reason, deactivated_at, deactivated_by, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :types, :target_roles, :publish_from, :publish_to,
:is_deleted, :deactivation_reason, :deactivated_at, :deactivated_by, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	if err := replaceScopeTx(ctx, tx, announcement.ID, scope); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement. When scope is non-nil the
// junction rows are fully replaced within the same transaction.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement, scope *models.AnnouncementScope) error {
	announcement.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update announcement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE announcements SET title = :title, description = :description, types = :types,
target_roles = :target_roles, publish_from = :publish_from, publish_to = :publish_to, updated_at = :updated_at
WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if scope != nil {
		if err := replaceScopeTx(ctx, tx, announcement.ID, *scope); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update announcement: %w", err)
	}
	return nil
}

// Deactivate flips the soft-delete flag and stamps the deactivation
// metadata. Databases whose schema cache does not yet know the metadata
// columns get a second attempt that only flips the flag.
func (r *AnnouncementRepository) Deactivate(ctx context.Context, id string, reason *string, actor string, now time.Time) error {
	const query = `UPDATE announcements SET is_deleted = TRUE, deactivation_reason = $2,
deactivated_at = $3, deactivated_by = $4, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, reason, now, actor)
	if err == nil {
		return nil
	}
	if !isUndefinedColumn(err) {
		return fmt.Errorf("deactivate announcement: %w", err)
	}
	const fallback = `UPDATE announcements SET is_deleted = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, fallback, id, now); err != nil {
		return fmt.Errorf("deactivate announcement: %w", err)
	}
	return nil
}

// Republish persists a revived announcement, clearing the deactivation
// metadata alongside the new publish window. The same undefined-column
// fallback applies so the status flip survives a stale schema.
func (r *AnnouncementRepository) Republish(ctx context.Context, announcement *models.Announcement, scope *models.AnnouncementScope) error {
	announcement.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin republish announcement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE announcements SET title = :title, description = :description, types = :types,
target_roles = :target_roles, publish_from = :publish_from, publish_to = :publish_to, is_deleted = FALSE,
deactivation_reason = NULL, deactivated_at = NULL, deactivated_by = NULL, updated_at = :updated_at
WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, announcement); err != nil {
		if !isUndefinedColumn(err) {
			return fmt.Errorf("republish announcement: %w", err)
		}
		const fallback = `UPDATE announcements SET title = :title, description = :description, types = :types,
target_roles = :target_roles, publish_from = :publish_from, publish_to = :publish_to, is_deleted = FALSE,
updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, fallback, announcement); err != nil {
			return fmt.Errorf("republish announcement: %w", err)
		}
	}
	if scope != nil {
		if err := replaceScopeTx(ctx, tx, announcement.ID, *scope); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit republish announcement: %w", err)
	}
	return nil
}

// GetScope loads the three scope dimensions for a single announcement.
func (r *AnnouncementRepository) GetScope(ctx context.Context, announcementID string) (models.AnnouncementScope, error) {
	scopes, err := r.ListScopes(ctx, []string{announcementID})
	if err != nil {
		return models.AnnouncementScope{}, err
	}
	return scopes[announcementID], nil
}

// ListScopes loads scope rows for a set of announcements in three queries.
func (r *AnnouncementRepository) ListScopes(ctx context.Context, announcementIDs []string) (map[string]models.AnnouncementScope, error) {
	result := make(map[string]models.AnnouncementScope, len(announcementIDs))
	if len(announcementIDs) == 0 {
		return result, nil
	}
	for i, dim := range scopeTables {
		query := fmt.Sprintf("SELECT announcement_id, entity_id FROM %s WHERE announcement_id = ANY($1)", dim.table)
		var rows []models.ScopeRow
		if err := r.db.SelectContext(ctx, &rows, query, pq.Array(announcementIDs)); err != nil {
			return nil, fmt.Errorf("list %s: %w", dim.table, err)
		}
		for _, row := range rows {
			scope := result[row.AnnouncementID]
			switch i {
			case 0:
				scope.DioceseIDs = append(scope.DioceseIDs, row.EntityID)
			case 1:
				scope.ChurchIDs = append(scope.ChurchIDs, row.EntityID)
			case 2:
				scope.ClassIDs = append(scope.ClassIDs, row.EntityID)
			}
			result[row.AnnouncementID] = scope
		}
	}
	return result, nil
}

// ReplaceScope atomically replaces all scope rows for an announcement.
func (r *AnnouncementRepository) ReplaceScope(ctx context.Context, announcementID string, scope models.AnnouncementScope) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace scope: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := replaceScopeTx(ctx, tx, announcementID, scope); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace scope: %w", err)
	}
	return nil
}

// DistinctTypes returns the distinct tag values used across announcements.
func (r *AnnouncementRepository) DistinctTypes(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 25
	}
	query := fmt.Sprintf("SELECT DISTINCT unnest(types) AS tag FROM announcements ORDER BY tag LIMIT %d", limit)
	var tags []string
	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, fmt.Errorf("distinct announcement types: %w", err)
	}
	return tags, nil
}

func replaceScopeTx(ctx context.Context, tx *sqlx.Tx, announcementID string, scope models.AnnouncementScope) error {
	for _, dim := range scopeTables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE announcement_id = $1", dim.table), announcementID); err != nil {
			return fmt.Errorf("clear %s: %w", dim.table, err)
		}
		for _, entityID := range dim.ids(scope) {
			query := fmt.Sprintf("INSERT INTO %s (announcement_id, entity_id) VALUES ($1, $2)", dim.table)
			if _, err := tx.ExecContext(ctx, query, announcementID, entityID); err != nil {
				return fmt.Errorf("insert %s: %w", dim.table, err)
			}
		}
	}
	return nil
}

// isUndefinedColumn reports whether the error is Postgres 42703, raised when
// the deactivation metadata columns have not been provisioned yet.
func isUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42703"
}
