package schema

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestMigrationsArePaired(t *testing.T) {
	src, err := iofs.New(migrations, migrationsDir)
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)

	var versions []uint
	for {
		versions = append(versions, version)

		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "version %d has no up migration", version)
		assert.NotEmpty(t, strings.TrimSpace(readAll(t, up)))

		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "version %d has no down migration", version)
		assert.NotEmpty(t, strings.TrimSpace(readAll(t, down)))

		version, err = src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, []uint{1, 2}, versions)
	assert.Equal(t, uint(Version), versions[len(versions)-1])
}

func TestCreateRecordsMigration(t *testing.T) {
	src, err := iofs.New(migrations, migrationsDir)
	require.NoError(t, err)
	defer src.Close()

	up, _, err := src.ReadUp(1)
	require.NoError(t, err)
	sql := readAll(t, up)

	for _, table := range []string{"passports", "visas", "prices", "subscriptions", "payment_methods", "notification_preferences"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, sql, "CHECK (status IN ('active', 'expired', 'cancelled'))")
	assert.Contains(t, sql, "documents   JSONB NOT NULL DEFAULT '[]'::jsonb")
	assert.NotContains(t, sql, "UNIQUE INDEX", "visa numbers are only made unique by the second migration")
}

func TestUniqueVisaNumberMigration(t *testing.T) {
	src, err := iofs.New(migrations, migrationsDir)
	require.NoError(t, err)
	defer src.Close()

	up, _, err := src.ReadUp(2)
	require.NoError(t, err)
	assert.Contains(t, readAll(t, up), "CREATE UNIQUE INDEX IF NOT EXISTS idx_visas_visa_number ON visas (visa_number)")
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

// TestUpDown needs a Postgres with the auth schema, e.g. a local backend stack.
func TestUpDown(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := Open(url)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Up(db))
	require.NoError(t, Up(db), "second run is a no-op")
	require.NoError(t, Down(db, 1))
	require.NoError(t, Up(db))
}
