package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/postcode-matcher/app/models"
)

// importSQL recreates table and inserts rows in one transaction. Both DuckDB
// and Postgres accept $n placeholders.
func importSQL(ctx context.Context, db *sql.DB, table, floatType string, rows []models.LocationRecord, progress func(int)) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		postcode VARCHAR, locality VARCHAR, state VARCHAR,
		lat %[2]s, lon %[2]s,
		lgaregion VARCHAR, lgacode VARCHAR,
		sa3 VARCHAR, sa3name VARCHAR, sa4 VARCHAR, sa4name VARCHAR,
		region VARCHAR, electorate VARCHAR, altitude %[2]s,
		phn_name VARCHAR, phn_code VARCHAR
	)`, table, floatType)
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`, table, locationColumns))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			r.Postcode, r.Locality, string(r.State), r.Latitude, r.Longitude,
			r.LGAName, r.LGACode, r.SA3Code, r.SA3Name, r.SA4Code, r.SA4Name,
			r.Region, r.ElectoralDivision, r.Altitude, r.PHNName, r.PHNCode,
		); err != nil {
			return fmt.Errorf("insert row %d (%s %s): %w", i, r.Postcode, r.Locality, err)
		}
		if progress != nil {
			progress(1)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}
