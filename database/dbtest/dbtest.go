// Package dbtest opens throwaway SQLite databases for repository tests.
package dbtest

import (
	"testing"

	"github.com/anoixa/memlane/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewProvider returns a migrated in-memory SQLite provider with foreign keys on.
// The pool holds a single connection, so code running inside a transaction
// must only use the transaction handle.
func NewProvider(t testing.TB) *database.GormProvider {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	provider := database.NewGormProviderFromDB(db, database.TypeSQLite, "")
	require.NoError(t, database.AutoMigrate(provider))

	t.Cleanup(func() {
		_ = provider.Close()
	})
	return provider
}

// CountStatements counts SELECT statements against table issued through db,
// including Scan and Row calls
func CountStatements(t testing.TB, db *gorm.DB, table string) *int {
	t.Helper()

	n := new(int)
	count := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			*n++
		}
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("dbtest:count_query_"+table, count))
	require.NoError(t, db.Callback().Row().After("gorm:row").Register("dbtest:count_row_"+table, count))
	return n
}
