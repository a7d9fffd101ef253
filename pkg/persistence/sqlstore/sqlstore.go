// Package sqlstore provides SQL persistence of the website list and schedule
// on PostgreSQL (lib/pq) or SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/webmonitor/pkg/models"
	"github.com/dukex/webmonitor/pkg/persistence"
	"github.com/dukex/webmonitor/pkg/persistence/sqlbase"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Persistence implements persistence.Persistence on a SQL database.
type Persistence struct {
	db      *sql.DB
	dialect sqlbase.Dialect
	logger  *slog.Logger
}

// NewPostgres connects to PostgreSQL and runs migrations.
func NewPostgres(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	return open(ctx, logger, sqlbase.Postgres, databaseURL)
}

// NewSQLite opens (creating if needed) the SQLite database at the path of a
// "sqlite://" URL and runs migrations.
func NewSQLite(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	path := strings.TrimPrefix(databaseURL, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	return open(ctx, logger, sqlbase.SQLite, dsn)
}

func open(ctx context.Context, logger *slog.Logger, dialect sqlbase.Dialect, dsn string) (*Persistence, error) {
	database, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	if dialect == sqlbase.SQLite {
		// SQLite allows a single writer; serialize through one connection.
		database.SetMaxOpenConns(1)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Persistence{
		db:      database,
		dialect: dialect,
		logger:  logger.With("module", "sql_persistence", "dialect", dialect.String()),
	}

	migrationManager := sqlbase.NewMigrationManager(store.logger, database, dialect, migrations(dialect))

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Websites returns the stored website list in insertion order.
func (p *Persistence) Websites(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT url FROM websites ORDER BY position ASC")
	if err != nil {
		return nil, persistence.NewDocumentError("Load", "websites", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			p.logger.ErrorContext(ctx, "Failed to close rows", "error", closeErr)
		}
	}()

	websites := []string{}

	for rows.Next() {
		var url string

		err = rows.Scan(&url)
		if err != nil {
			return nil, persistence.NewDocumentError("Load", "websites", err)
		}

		websites = append(websites, url)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewDocumentError("Load", "websites", err)
	}

	return websites, nil
}

// SaveWebsites replaces the whole website list inside a transaction.
func (p *Persistence) SaveWebsites(ctx context.Context, websites []string) error {
	insert := fmt.Sprintf("INSERT INTO websites (position, url) VALUES (%s, %s)",
		p.dialect.Placeholder(1), p.dialect.Placeholder(2))

	err := p.replace(ctx, "DELETE FROM websites", func(tx *sql.Tx) error {
		for position, url := range websites {
			_, err := tx.ExecContext(ctx, insert, position, url)
			if err != nil {
				return fmt.Errorf("failed to insert website %s: %w", url, err)
			}
		}

		return nil
	})
	if err != nil {
		return persistence.NewDocumentError("Save", "websites", err)
	}

	p.logger.DebugContext(ctx, "Websites saved", "count", len(websites))

	return nil
}

// Schedule returns the stored schedule.
func (p *Persistence) Schedule(ctx context.Context) (models.Schedule, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT weekday, time_of_day FROM schedule ORDER BY weekday ASC")
	if err != nil {
		return nil, persistence.NewDocumentError("Load", "schedule", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			p.logger.ErrorContext(ctx, "Failed to close rows", "error", closeErr)
		}
	}()

	schedule := models.Schedule{}

	for rows.Next() {
		var (
			weekday int
			time    string
		)

		err = rows.Scan(&weekday, &time)
		if err != nil {
			return nil, persistence.NewDocumentError("Load", "schedule", err)
		}

		schedule[weekday] = time
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewDocumentError("Load", "schedule", err)
	}

	return schedule.Valid(), nil
}

// SaveSchedule replaces the whole schedule inside a transaction. Invalid entries are never written.
func (p *Persistence) SaveSchedule(ctx context.Context, schedule models.Schedule) error {
	insert := fmt.Sprintf("INSERT INTO schedule (weekday, time_of_day) VALUES (%s, %s)",
		p.dialect.Placeholder(1), p.dialect.Placeholder(2))

	entries := schedule.Entries()

	err := p.replace(ctx, "DELETE FROM schedule", func(tx *sql.Tx) error {
		for _, entry := range entries {
			_, err := tx.ExecContext(ctx, insert, entry.Weekday, entry.Time)
			if err != nil {
				return fmt.Errorf("failed to insert schedule entry %d: %w", entry.Weekday, err)
			}
		}

		return nil
	})
	if err != nil {
		return persistence.NewDocumentError("Save", "schedule", err)
	}

	p.logger.DebugContext(ctx, "Schedule saved", "entries", len(entries))

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func (p *Persistence) replace(ctx context.Context, clear string, fill func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, clear)
	if err != nil {
		_ = tx.Rollback()

		return err
	}

	err = fill(tx)
	if err != nil {
		_ = tx.Rollback()

		return err
	}

	return tx.Commit()
}
