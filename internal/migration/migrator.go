package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nrbrt02/fast-shopping/internal/config"
	"github.com/nrbrt02/fast-shopping/internal/database"
)

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

//go:embed sql/*.sql
var embedded embed.FS

// Status describes one known migration.
type Status struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator applies the embedded SQL migrations. They are written for postgres;
// sqlite and mysql, used for development and tests, get their tables straight
// from the bun models instead.
type Migrator struct {
	db       *bun.DB
	provider *goose.Provider
	driver   string
	logger   *zap.Logger
}

// New builds a migrator for the writer pool.
func New(cfg config.Config, conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Migrator{db: conns.Writer, driver: cfg.Database.Driver, logger: logger}

	if _, err := gooseDialect(m.driver); err != nil {
		return nil, err
	}
	if !m.usesGoose() {
		return m, nil
	}

	fsys, err := fs.Sub(embedded, "sql")
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, conns.Writer.DB, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	m.provider = provider
	return m, nil
}

func (m *Migrator) usesGoose() bool {
	return m.driver == "postgres" || m.driver == "pg"
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	if !m.usesGoose() {
		if err := database.CreateSchema(ctx, m.db); err != nil {
			return err
		}
		m.logger.Info("schema created from models", zap.String("driver", m.driver))
		return nil
	}

	results, err := m.provider.Up(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		m.logger.Info("no migrations to apply")
		return nil
	}
	for _, res := range results {
		m.logger.Info("migration applied",
			zap.Int64("version", res.Source.Version),
			zap.String("path", res.Source.Path),
			zap.Duration("duration", res.Duration),
		)
	}
	return nil
}

// Down rolls back steps migrations (at least one), or all of them when all is set.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if !m.usesGoose() {
		return fmt.Errorf("rollback is only supported on postgres, not %s", m.driver)
	}

	if all {
		results, err := m.provider.DownTo(ctx, 0)
		if err != nil {
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"), zap.Int("count", len(results)))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		res, err := m.provider.Down(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			m.logger.Info("no migrations to rollback")
			return nil
		}
		if err != nil {
			return err
		}
		m.logger.Info("migration rolled back", zap.Int64("version", res.Source.Version))
	}
	return nil
}

// Status lists every embedded migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if !m.usesGoose() {
		return nil, fmt.Errorf("migration status is only tracked on postgres, not %s", m.driver)
	}

	states, err := m.provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(states))
	for _, st := range states {
		out = append(out, Status{
			Version:   st.Source.Version,
			Path:      st.Source.Path,
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case "postgres", "pg":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported goose dialect for driver %s", driver)
	}
}
