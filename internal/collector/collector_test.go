package collector_test

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-etl/internal/collector"
	"infra-etl/internal/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCollector_RunCollectsAndCatalogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(gdpBody))
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, "raw")

	c := collector.New(newClient(srv.URL), dataDir, rawDir, discardLogger())
	report, err := c.Run(ctx, []domain.Indicator{gdp}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, report.DatasetsCollected)
	assert.Equal(t, rawDir, report.DataDirectory)
	assert.False(t, report.RunDate.IsZero())
	assert.GreaterOrEqual(t, report.TotalSizeMB, 0.0)

	records := readCSV(t, filepath.Join(rawDir, "worldbank_gdp_per_capita.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"country_name", "country_code", "year", "value"}, records[0])
	assert.Equal(t, []string{"United States", "USA", "2020", "63027.5"}, records[1])

	catalog := readCSV(t, filepath.Join(dataDir, "data_catalog.csv"))
	require.Len(t, catalog, 3)
	assert.Equal(t, []string{"filename", "rows", "columns", "size_mb", "downloaded"}, catalog[0])
	assert.Equal(t, "infrastructure_resilience_scores.csv", catalog[1][0])
	assert.Equal(t, "210", catalog[1][1])
	assert.Equal(t, "worldbank_gdp_per_capita.csv", catalog[2][0])
	assert.Equal(t, "2", catalog[2][1])

	data, err := os.ReadFile(filepath.Join(dataDir, "collection_report.json"))
	require.NoError(t, err)
	var onDisk domain.CollectionReport
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, 2, onDisk.DatasetsCollected)
	assert.Equal(t, rawDir, onDisk.DataDirectory)
}

func TestCollector_FailedIndicatorIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, "raw")

	c := collector.New(newClient(srv.URL), dataDir, rawDir, discardLogger())
	report, err := c.Run(ctx, []domain.Indicator{gdp}, true)
	require.NoError(t, err)

	// The sample file is still generated and cataloged.
	assert.Equal(t, 1, report.DatasetsCollected)
	_, statErr := os.Stat(filepath.Join(rawDir, "worldbank_gdp_per_capita.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollector_NothingCollected(t *testing.T) {
	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, "raw")

	c := collector.New(nil, dataDir, rawDir, discardLogger())
	report, err := c.Run(ctx, nil, false)
	require.NoError(t, err)

	assert.Zero(t, report.DatasetsCollected)
	_, statErr := os.Stat(filepath.Join(dataDir, "data_catalog.csv"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dataDir, "collection_report.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollector_CatalogsManuallyPlacedFiles(t *testing.T) {
	dataDir := t.TempDir()
	rawDir := filepath.Join(dataDir, "raw")
	require.NoError(t, os.MkdirAll(rawDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "worldbank_manual.csv"),
		[]byte("country_name,country_code,year,value\nAtlantis,ATL,2020,1.5\n"), 0o644))

	c := collector.New(nil, dataDir, rawDir, discardLogger())
	report, err := c.Run(ctx, nil, false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DatasetsCollected)
	catalog := readCSV(t, filepath.Join(dataDir, "data_catalog.csv"))
	require.Len(t, catalog, 2)
	assert.Equal(t, "worldbank_manual.csv", catalog[1][0])
	assert.Equal(t, "1", catalog[1][1])
	assert.Equal(t, "4", catalog[1][2])
}
