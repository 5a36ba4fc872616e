package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/models"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const locationColumns = `postcode, locality, state, lat, lon, lgaregion, lgacode,
	sa3, sa3name, sa4, sa4name, region, electorate, altitude, phn_name, phn_code`

// DuckDBSource reads the dataset from a table in a DuckDB database file.
type DuckDBSource struct {
	path   string
	table  string
	logger *zap.Logger
}

// NewDuckDBSource returns a Source over path. An empty table defaults to
// "localities".
func NewDuckDBSource(path, table string, logger *zap.Logger) *DuckDBSource {
	if table == "" {
		table = "localities"
	}
	return &DuckDBSource{path: path, table: table, logger: logger}
}

func (s *DuckDBSource) Name() string { return "duckdb:" + s.path + "#" + s.table }

func (s *DuckDBSource) Load(ctx context.Context) ([]models.LocationRecord, error) {
	if !identPattern.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	db, err := sql.Open("duckdb", s.path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", s.path, err)
	}
	defer db.Close()

	return queryLocations(ctx, db, fmt.Sprintf("SELECT %s FROM %s", locationColumns, s.table))
}

// ImportRecords replaces the table contents with rows.
func (s *DuckDBSource) ImportRecords(ctx context.Context, rows []models.LocationRecord, progress func(int)) error {
	if !identPattern.MatchString(s.table) {
		return fmt.Errorf("invalid table name %q", s.table)
	}
	db, err := sql.Open("duckdb", s.path)
	if err != nil {
		return fmt.Errorf("open duckdb %s: %w", s.path, err)
	}
	defer db.Close()

	if err := importSQL(ctx, db, s.table, "DOUBLE", rows, progress); err != nil {
		return err
	}
	s.logger.Info("Imported records into DuckDB",
		zap.String("path", s.path),
		zap.String("table", s.table),
		zap.Int("rows", len(rows)))
	return nil
}

// queryLocations scans rows selected as locationColumns.
func queryLocations(ctx context.Context, db *sql.DB, query string) ([]models.LocationRecord, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []models.LocationRecord
	for rows.Next() {
		var (
			postcode, locality, state                sql.NullString
			lat, lon, altitude                       sql.NullFloat64
			lga, lgaCode, sa3, sa3Name, sa4, sa4Name sql.NullString
			region, electorate, phnName, phnCode     sql.NullString
		)
		if err := rows.Scan(&postcode, &locality, &state, &lat, &lon, &lga, &lgaCode,
			&sa3, &sa3Name, &sa4, &sa4Name, &region, &electorate, &altitude, &phnName, &phnCode); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, models.LocationRecord{
			Postcode:          postcode.String,
			Locality:          locality.String,
			State:             models.State(state.String),
			Latitude:          nullFloat(lat),
			Longitude:         nullFloat(lon),
			LGAName:           lga.String,
			LGACode:           lgaCode.String,
			SA3Code:           sa3.String,
			SA3Name:           sa3Name.String,
			SA4Code:           sa4.String,
			SA4Name:           sa4Name.String,
			Region:            region.String,
			ElectoralDivision: electorate.String,
			Altitude:          nullFloat(altitude),
			PHNName:           phnName.String,
			PHNCode:           phnCode.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
