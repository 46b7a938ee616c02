package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrdered(t *testing.T) {
	ms, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Version, ms[i].Version)
	}
	assert.Contains(t, ms[0].UpSQL, "CREATE TABLE IF NOT EXISTS tasks")
}

func TestMigrateFreshDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ms, err := loadMigrations()
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_version")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_version")).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_version")).WillReturnResult(sqlmock.NewResult(1, 1))
	for _, m := range ms {
		mock.ExpectExec(regexp.QuoteMeta(m.UpSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE schema_version SET version = ?")).
			WithArgs(m.Version).WillReturnResult(sqlmock.NewResult(0, 1))
	}

	v, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, ms[len(ms)-1].Version, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUpToDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ms, err := loadMigrations()
	require.NoError(t, err)
	last := ms[len(ms)-1].Version

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_version")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_version")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(last))

	v, err := Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, last, v)
	require.NoError(t, mock.ExpectationsWereMet())
}
