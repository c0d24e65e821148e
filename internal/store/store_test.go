// store_test.go provides a shared test database helper for all store
// tests. Each test gets its own migrated SQLite file under t.TempDir().
package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sitetemplates/internal/database"
	"sitetemplates/internal/models"
)

// testDB opens a fresh SQLite database and runs migrations. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "store.db")
	db, err := database.Connect(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, database.DriverSQLite))
	return db
}

func newTemplateStore(t *testing.T) (*TemplateStore, *sql.DB) {
	t.Helper()
	db := testDB(t)
	return NewTemplateStore(db, database.DriverSQLite), db
}

func insertTemplate(t *testing.T, s *TemplateStore, siteID int64, tt models.TemplateType, name string, isDefault bool) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), &models.Template{
		SiteID:          siteID,
		TemplateName:    name,
		Type:            tt,
		RelatedFileName: name + ".html",
		IsDefault:       isDefault,
	})
	require.NoError(t, err)
	return id
}

func TestIsUniqueViolation(t *testing.T) {
	s, _ := newTemplateStore(t)
	insertTemplate(t, s, 1, models.TemplateTypeFile, "dup", false)

	_, err := s.Insert(context.Background(), &models.Template{
		SiteID: 1, TemplateName: "dup", Type: models.TemplateTypeFile, RelatedFileName: "x.html",
	})
	require.ErrorIs(t, err, ErrConflict)
}
