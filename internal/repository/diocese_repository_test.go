package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestDioceseRepositoryRefsAllIsUnpaged(t *testing.T) {
	db, mock, cleanup := newAnnouncementRepoMock(t)
	defer cleanup()
	repo := NewDioceseRepository(db)

	mock.ExpectQuery(`^SELECT id FROM dioceses ORDER BY name ASC$`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d1").AddRow("d2"))

	ids, err := repo.RefsAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"d1", "d2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
