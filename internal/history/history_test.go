package history

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/pkg/invoker"
)

var columns = []string{"id", "operation", "coordinate", "goals", "base_dir", "exit_code", "error", "started_at", "duration_ms"}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	e := NewEntry("install", started).Complete(&invoker.Result{
		ExitCode: 2,
		Err:      &invoker.ExitError{Code: 2},
		Duration: 3 * time.Second,
	})

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, e.StartedAt.Location())
	assert.Equal(t, 2, e.ExitCode)
	assert.Equal(t, 3*time.Second, e.Duration)
	assert.Contains(t, e.Error, "2")

	assert.NotEqual(t, e.ID, NewEntry("install", started).ID)
}

func TestDefaultDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/home/dev", ".local", "share", "mvnops", "history"), DefaultDir("/home/dev", nil))

	lookup := func(k string) (string, bool) { return "/xdg", k == "XDG_DATA_HOME" }
	assert.Equal(t, filepath.Join("/xdg", "mvnops", "history"), DefaultDir("/home/dev", lookup))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(context.Background(), config.HistoryConfig{}, dir)
	require.NoError(t, err)
	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, dir, fs.Dir())

	s, err = Open(context.Background(), config.HistoryConfig{Backend: "none"}, dir)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, s)

	_, err = Open(context.Background(), config.HistoryConfig{Backend: "postgres"}, dir)
	assert.ErrorContains(t, err, "requires dsn")

	_, err = Open(context.Background(), config.HistoryConfig{Backend: "mongo"}, dir)
	assert.ErrorContains(t, err, "unknown history backend")
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "history"))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, op := range []string{"install", "deploy", "exec"} {
		e := NewEntry(op, base.Add(time.Duration(i)*time.Minute))
		e.Goals = []string{"verify"}
		require.NoError(t, s.Record(ctx, e))
	}

	entries, err = s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "exec", entries[0].Operation)
	assert.Equal(t, "deploy", entries[1].Operation)
	assert.Equal(t, []string{"verify"}, entries[0].Goals)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLStore_Postgres(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s, err := NewSQLStore(db, DialectPostgres, "")
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "mvnops_history"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureSchema(ctx))

	e := NewEntry("deploy", time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC))
	e.Coordinate = "com.example:demo:jar:1.0"
	e.Goals = []string{"deploy:deploy-file"}
	e.Duration = 1500 * time.Millisecond

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "mvnops_history" (id, operation, coordinate, goals, base_dir, exit_code, error, started_at, duration_ms) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)).
		WithArgs(e.ID, "deploy", e.Coordinate, `["deploy:deploy-file"]`, "", 0, "", e.StartedAt, int64(1500)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.Record(ctx, e))

	rows := sqlmock.NewRows(columns).
		AddRow(e.ID, "deploy", e.Coordinate, `["deploy:deploy-file"]`, nil, 0, nil, e.StartedAt, int64(1500))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "mvnops_history" ORDER BY started_at DESC LIMIT $1`)).
		WithArgs(5).
		WillReturnRows(rows)

	entries, err := s.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e, entries[0])

	mock.ExpectClose()
	require.NoError(t, s.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_MySQL(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s, err := NewSQLStore(db, DialectMySQL, "builds")
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `builds`") + ".*VALUES \\(\\?, \\?, \\?, \\?, \\?, \\?, \\?, \\?, \\?\\)").
		WillReturnError(errors.New("table is read only"))
	err = s.Record(ctx, NewEntry("exec", time.Now()))
	assert.ErrorContains(t, err, "record history entry")

	mock.ExpectQuery(regexp.QuoteMeta("FROM `builds` ORDER BY started_at DESC LIMIT ?")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(columns))
	entries, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSQLStore_RejectsTableName(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLStore(db, DialectPostgres, "history; DROP TABLE users")
	assert.ErrorContains(t, err, "invalid history table name")
}

func TestMySQLDSN(t *testing.T) {
	t.Parallel()

	dsn, err := mysqlDSN("user:pass@tcp(db:3306)/builds")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = mysqlDSN("not a dsn")
	assert.Error(t, err)
}
