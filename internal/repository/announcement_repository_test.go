package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

func newAnnouncementRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func announcementRows(ann models.Announcement) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "types", "target_roles", "publish_from", "publish_to",
		"is_deleted", "deactivation_reason", "deactivated_at", "deactivated_by", "created_by", "created_at", "updated_at",
	}).AddRow(
		ann.ID, ann.Title, ann.Description, ann.Types, ann.TargetRoles, ann.PublishFrom, ann.PublishTo,
		ann.IsDeleted, ann.DeactivationReason, ann.DeactivatedAt, ann.DeactivatedBy, ann.CreatedBy, ann.CreatedAt, ann.UpdatedAt,
	)
}

func TestAnnouncementRepositoryCreateWritesScopeInOneTx(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcements")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcement_diocese_scope")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcement_diocese_scope")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcement_church_scope")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcement_church_scope")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcement_class_scope")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ann := &models.Announcement{
		Title:       "Retreat",
		TargetRoles: pq.StringArray{"PARENT"},
		PublishFrom: time.Now().UTC(),
		CreatedBy:   "admin-1",
	}
	scope := models.AnnouncementScope{DioceseIDs: []string{"d1"}, ChurchIDs: []string{"c1"}}

	require.NoError(t, repo.Create(context.Background(), ann, scope))
	require.NotEmpty(t, ann.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryReplaceScopeRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM announcement_diocese_scope")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO announcement_diocese_scope")).
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.ReplaceScope(context.Background(), "a1", models.AnnouncementScope{DioceseIDs: []string{"ghost"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryDeactivateFallsBackOnUndefinedColumn(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	now := time.Now().UTC()
	reason := "stale"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE announcements SET is_deleted = TRUE, deactivation_reason")).
		WillReturnError(&pq.Error{Code: "42703"})
	mock.ExpectExec(regexp.QuoteMeta("UPDATE announcements SET is_deleted = TRUE, updated_at")).
		WithArgs("a1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "a1", &reason, "admin-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryDeactivateOtherErrorsPropagate(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE announcements SET is_deleted = TRUE, deactivation_reason")).
		WillReturnError(&pq.Error{Code: "53300"})

	err := repo.Deactivate(context.Background(), "a1", nil, "admin-1", time.Now())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryRepublishClearsMetadata(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("deactivation_reason = NULL, deactivated_at = NULL, deactivated_by = NULL")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ann := &models.Announcement{
		ID:          "a1",
		Title:       "Back again",
		TargetRoles: pq.StringArray{"PARENT"},
		PublishFrom: time.Now().UTC(),
	}
	require.NoError(t, repo.Republish(context.Background(), ann, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryListVisibleOverrideQuery(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	ann := models.Announcement{
		ID:          "a1",
		Title:       "Retreat",
		TargetRoles: pq.StringArray{"PARENT"},
		PublishFrom: time.Now().UTC().Add(-time.Hour),
	}

	// The scope branches must stay mutually exclusive: the church branch only
	// fires when no class rows exist, and the diocese branch only when neither
	// class nor church rows exist. Losing a NOT EXISTS guard flips override
	// semantics into a union.
	query := "(?s)" +
		regexp.QuoteMeta("a.target_roles && $1") + ".*" +
		regexp.QuoteMeta("cs.entity_id = ANY($2)") + ".*" +
		regexp.QuoteMeta("NOT EXISTS (SELECT 1 FROM announcement_class_scope cs WHERE cs.announcement_id = a.id)") + ".*" +
		regexp.QuoteMeta("hs.entity_id = $3") + ".*" +
		regexp.QuoteMeta("NOT EXISTS (SELECT 1 FROM announcement_church_scope hs WHERE hs.announcement_id = a.id)") + ".*" +
		regexp.QuoteMeta("ds.entity_id = $4") + ".*" +
		regexp.QuoteMeta("NOT EXISTS (SELECT 1 FROM announcement_diocese_scope ds WHERE ds.announcement_id = a.id)")
	mock.ExpectQuery(query).
		WithArgs(pq.Array([]string{"PARENT"}), pq.Array([]string{"k1", "k2"}), "c1", "d1").
		WillReturnRows(announcementRows(ann))

	rows, err := repo.ListVisible(context.Background(), models.AnnouncementFilter{
		Roles:     []models.UserRole{models.RoleParent},
		DioceseID: "d1",
		ChurchID:  "c1",
		ClassIDs:  []string{"k1", "k2"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "a1", rows[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	ann := models.Announcement{
		ID:          "a1",
		Title:       "Retreat",
		Types:       pq.StringArray{"event"},
		TargetRoles: pq.StringArray{"PARENT"},
		PublishFrom: time.Now().UTC(),
		CreatedBy:   "admin-1",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, types")).
		WithArgs("a1").
		WillReturnRows(announcementRows(ann))

	found, err := repo.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "a1", found.ID)
	require.Equal(t, pq.StringArray{"event"}, found.Types)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryDistinctTypes(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	rows := sqlmock.NewRows([]string{"tag"}).AddRow("event").AddRow("retreat")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT unnest(types) AS tag FROM announcements ORDER BY tag LIMIT 5")).
		WillReturnRows(rows)

	tags, err := repo.DistinctTypes(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, []string{"event", "retreat"}, tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementRepositoryListScopes(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewAnnouncementRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM announcement_diocese_scope")).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "entity_id"}).AddRow("a1", "d1"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM announcement_church_scope")).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "entity_id"}).
			AddRow("a1", "c1").AddRow("a2", "c2"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM announcement_class_scope")).
		WillReturnRows(sqlmock.NewRows([]string{"announcement_id", "entity_id"}))

	scopes, err := repo.ListScopes(context.Background(), []string{"a1", "a2"})
	require.NoError(t, err)
	require.Equal(t, []string{"d1"}, scopes["a1"].DioceseIDs)
	require.Equal(t, []string{"c1"}, scopes["a1"].ChurchIDs)
	require.Equal(t, []string{"c2"}, scopes["a2"].ChurchIDs)
	require.Empty(t, scopes["a1"].ClassIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}
