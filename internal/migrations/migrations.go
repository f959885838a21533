package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

type Runner struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// NewPostgres opens a dedicated lib/pq handle for the migrator; Close releases it.
func NewPostgres(dsn string, log *zap.Logger) (*Runner, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres for migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init postgres migration driver: %w", err)
	}
	return newRunner(DialectPostgres, driver, log)
}

func NewSQLite(path string, log *zap.Logger) (*Runner, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite for migrations: %w", err)
	}
	db.SetMaxOpenConns(1)
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite migration driver: %w", err)
	}
	return newRunner(DialectSQLite, driver, log)
}

func New(dialect, dsn string, log *zap.Logger) (*Runner, error) {
	switch dialect {
	case DialectPostgres:
		return NewPostgres(dsn, log)
	case DialectSQLite:
		return NewSQLite(dsn, log)
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

func newRunner(dialect string, driver database.Driver, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	src, err := iofs.New(files, dialect)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("open embedded %s migrations: %w", dialect, err)
	}
	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	m.Log = migrateLogger{log: log.With(zap.String("dialect", dialect))}
	return &Runner{m: m, log: log}, nil
}

func (r *Runner) Up() error {
	if err := r.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *Runner) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("invalid down steps %d", steps)
	}
	if err := r.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}
	return nil
}

func (r *Runner) Version() (uint, bool, error) {
	v, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return v, dirty, nil
}

func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

type migrateLogger struct {
	log *zap.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l migrateLogger) Verbose() bool {
	return false
}
