package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
)

// PostgresSource reads the dataset from a Postgres table.
type PostgresSource struct {
	dsn    string
	table  string
	logger *zap.Logger
}

// NewPostgresSource returns a Source over dsn. An empty table defaults to
// "localities".
func NewPostgresSource(dsn, table string, logger *zap.Logger) *PostgresSource {
	if table == "" {
		table = "localities"
	}
	return &PostgresSource{dsn: dsn, table: table, logger: logger}
}

func (s *PostgresSource) Name() string { return "postgres:" + s.table }

func (s *PostgresSource) open(ctx context.Context) (*sql.DB, error) {
	if !identPattern.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	return db, nil
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.LocationRecord, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return queryLocations(ctx, db, fmt.Sprintf("SELECT %s FROM %s", locationColumns, s.table))
}

// ImportRecords replaces the table contents with rows.
func (s *PostgresSource) ImportRecords(ctx context.Context, rows []models.LocationRecord, progress func(int)) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := importSQL(ctx, db, s.table, "DOUBLE PRECISION", rows, progress); err != nil {
		return err
	}
	s.logger.Info("Imported records into Postgres",
		zap.String("table", s.table),
		zap.Int("rows", len(rows)))
	return nil
}
