package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
)

// Source yields the raw rows of one dataset generation. Rows are sanitized
// and enriched by the snapshot builder, so sources may return them as stored.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.LocationRecord, error)
}

// SourceConfig selects and configures a Source.
type SourceConfig struct {
	Kind            string // csv, duckdb, postgres, mongo
	CSVPath         string
	DuckDBPath      string
	DuckDBTable     string
	PostgresDSN     string
	PostgresTable   string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	Timeout         time.Duration
}

// NewSource builds the Source named by cfg.Kind.
func NewSource(cfg SourceConfig, logger *zap.Logger) (Source, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "csv":
		if cfg.CSVPath == "" {
			return nil, fmt.Errorf("csv source requires a path")
		}
		return NewCSVSource(cfg.CSVPath), nil
	case "duckdb":
		return NewDuckDBSource(cfg.DuckDBPath, cfg.DuckDBTable, logger), nil
	case "postgres":
		return NewPostgresSource(cfg.PostgresDSN, cfg.PostgresTable, logger), nil
	case "mongo":
		return NewMongoSource(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, cfg.Timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Kind)
	}
}

// StaticSource serves a fixed slice of rows. Useful for tests and for
// publishing rows that were already read elsewhere.
type StaticSource struct {
	Label string
	Rows  []models.LocationRecord
}

func (s *StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

func (s *StaticSource) Load(ctx context.Context) ([]models.LocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.LocationRecord, len(s.Rows))
	copy(out, s.Rows)
	return out, nil
}

// Importer writes rows into a backing store that a Source can later read.
type Importer interface {
	ImportRecords(ctx context.Context, rows []models.LocationRecord, progress func(int)) error
}

// NewImporter builds the Importer for a database-backed source kind.
func NewImporter(cfg SourceConfig, logger *zap.Logger) (Importer, error) {
	src, err := NewSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	imp, ok := src.(Importer)
	if !ok {
		return nil, fmt.Errorf("dataset source %q cannot be imported into", cfg.Kind)
	}
	return imp, nil
}
