package dataset

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDuckDBRoundTrip(t *testing.T) {
	ctx := context.Background()
	rows, err := NewCSVSource("testdata/localities.csv").Load(ctx)
	require.NoError(t, err)

	src := NewDuckDBSource(filepath.Join(t.TempDir(), "postcodes.duckdb"), "", zap.NewNop())
	imported := 0
	require.NoError(t, src.ImportRecords(ctx, rows, func(n int) { imported += n }))
	assert.Equal(t, len(rows), imported)

	loaded, err := src.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, len(rows))

	snap := Build(1, src.Name(), loaded, BuildOptions{})
	assert.Equal(t, 7, snap.Len())
	assert.Len(t, snap.ByNormalized("newcastle"), 1)
	require.NotNil(t, snap.ByPostcode("0800")[0].Latitude)
}

func TestDuckDBRejectsBadTableName(t *testing.T) {
	src := NewDuckDBSource(filepath.Join(t.TempDir(), "x.duckdb"), "bad name;", zap.NewNop())
	_, err := src.Load(context.Background())
	assert.ErrorContains(t, err, "invalid table name")
}

func TestNewSource(t *testing.T) {
	log := zap.NewNop()
	src, err := NewSource(SourceConfig{Kind: "csv", CSVPath: "x.csv"}, log)
	require.NoError(t, err)
	assert.Equal(t, "csv:x.csv", src.Name())

	_, err = NewSource(SourceConfig{Kind: "csv"}, log)
	assert.Error(t, err)

	_, err = NewSource(SourceConfig{Kind: "sqlite"}, log)
	assert.Error(t, err)

	_, err = NewImporter(SourceConfig{Kind: "csv", CSVPath: "x.csv"}, log)
	assert.Error(t, err)

	imp, err := NewImporter(SourceConfig{Kind: "postgres", PostgresDSN: "postgres://localhost/x"}, log)
	require.NoError(t, err)
	assert.NotNil(t, imp)
}
