package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Dialect captures the differences between the supported databases.
type Dialect struct {
	Driver      string
	quote       func(string) string
	placeholder func(n int) string
	textType    string
	timeType    string
}

var (
	DialectPostgres = Dialect{
		Driver:      "postgres",
		quote:       pq.QuoteIdentifier,
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		textType:    "TEXT",
		timeType:    "TIMESTAMPTZ",
	}
	DialectMySQL = Dialect{
		Driver:      "mysql",
		quote:       func(s string) string { return "`" + s + "`" },
		placeholder: func(int) string { return "?" },
		textType:    "TEXT",
		timeType:    "DATETIME(6)",
	}
)

func dialectFor(backend string) (Dialect, error) {
	switch backend {
	case BackendPostgres:
		return DialectPostgres, nil
	case BackendMySQL:
		return DialectMySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported SQL backend %q", backend)
}

// SQLStore keeps entries in a database table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// OpenSQL connects to the database and ensures the table exists.
func OpenSQL(ctx context.Context, backend, dsn, table string) (*SQLStore, error) {
	d, err := dialectFor(backend)
	if err != nil {
		return nil, err
	}
	if d.Driver == "mysql" {
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	store, err := NewSQLStore(db, d, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, d Dialect, table string) (*SQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid history table name %q", table)
	}
	return &SQLStore{db: db, dialect: d, table: table}, nil
}

func (s *SQLStore) quotedTable() string {
	return s.dialect.quote(s.table)
}

// EnsureSchema creates the history table if needed.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	text, ts := s.dialect.textType, s.dialect.timeType
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(36) PRIMARY KEY,
	operation VARCHAR(32) NOT NULL,
	coordinate %s,
	goals %s,
	base_dir %s,
	exit_code INTEGER NOT NULL,
	error %s,
	started_at %s NOT NULL,
	duration_ms BIGINT NOT NULL
)`, s.quotedTable(), text, text, text, text, ts)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

func (s *SQLStore) Record(ctx context.Context, e Entry) error {
	goals, err := json.Marshal(e.Goals)
	if err != nil {
		return err
	}
	ph := make([]string, 9)
	for i := range ph {
		ph[i] = s.dialect.placeholder(i + 1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (id, operation, coordinate, goals, base_dir, exit_code, error, started_at, duration_ms) VALUES (%s)",
		s.quotedTable(), strings.Join(ph, ", "))

	_, err = s.db.ExecContext(ctx, stmt,
		e.ID, e.Operation, e.Coordinate, string(goals), e.BaseDir,
		e.ExitCode, e.Error, e.StartedAt.UTC(), e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	stmt := fmt.Sprintf(
		"SELECT id, operation, coordinate, goals, base_dir, exit_code, error, started_at, duration_ms FROM %s ORDER BY started_at DESC LIMIT %s",
		s.quotedTable(), s.dialect.placeholder(1))

	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var (
			e                                   Entry
			coordinate, goals, baseDir, errText sql.NullString
			durationMs                          int64
		)
		if err := rows.Scan(&e.ID, &e.Operation, &coordinate, &goals, &baseDir,
			&e.ExitCode, &errText, &e.StartedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Coordinate, e.BaseDir, e.Error = coordinate.String, baseDir.String, errText.String
		if goals.Valid && goals.String != "" && goals.String != "null" {
			if err := json.Unmarshal([]byte(goals.String), &e.Goals); err != nil {
				return nil, fmt.Errorf("decode goals of %s: %w", e.ID, err)
			}
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
