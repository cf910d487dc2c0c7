package etl_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-etl/internal/domain"
	"infra-etl/internal/etl"
)

func TestQualityChecker_AllPass(t *testing.T) {
	sess := newTestSession(t)
	seedDerivedRelations(t, sess)
	outDir := t.TempDir()

	report, err := etl.NewQualityChecker(sess, outDir, discardLogger()).Run(ctx)
	require.NoError(t, err)

	require.Len(t, report.Checks, 2)
	assert.True(t, report.AllPassed)
	assert.False(t, report.Timestamp.IsZero())

	assert.Equal(t, "null_values", report.Checks[0].CheckName)
	assert.True(t, report.Checks[0].Passed)
	assert.Equal(t, "Found 0 null values", report.Checks[0].Details)

	assert.Equal(t, "duplicates", report.Checks[1].CheckName)
	assert.True(t, report.Checks[1].Passed)
	assert.Equal(t, "Found 0 duplicate records", report.Checks[1].Details)
}

func TestQualityChecker_FindingsAreReportedNotFatal(t *testing.T) {
	sess := newTestSession(t)
	seedDerivedRelations(t, sess)
	outDir := t.TempDir()

	// One null score and one duplicated (country, year) pair.
	require.NoError(t, sess.Exec(ctx,
		"INSERT INTO clean_infrastructure VALUES ('Zeta', 2020, NULL, 0, 0, 0, 0, 0, NULL, 1)"))
	require.NoError(t, sess.Exec(ctx,
		"INSERT INTO clean_infrastructure SELECT * FROM clean_infrastructure WHERE country = 'Atlantis' AND year = 2010"))

	report, err := etl.NewQualityChecker(sess, outDir, discardLogger()).Run(ctx)
	require.NoError(t, err)

	assert.False(t, report.AllPassed)
	assert.False(t, report.Checks[0].Passed)
	assert.Equal(t, "Found 1 null values", report.Checks[0].Details)
	assert.False(t, report.Checks[1].Passed)
	assert.Equal(t, "Found 1 duplicate records", report.Checks[1].Details)
}

func TestQualityChecker_WritesReportFile(t *testing.T) {
	sess := newTestSession(t)
	seedDerivedRelations(t, sess)
	outDir := t.TempDir()

	_, err := etl.NewQualityChecker(sess, outDir, discardLogger()).Run(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "quality_report.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"check_name"`)
	assert.Contains(t, string(data), `"all_passed"`)

	var report domain.QualityReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.True(t, report.AllPassed)
	assert.Len(t, report.Checks, 2)
}

func TestQualityChecker_MissingRelationIsStructural(t *testing.T) {
	sess := newTestSession(t)

	_, err := etl.NewQualityChecker(sess, t.TempDir(), discardLogger()).Run(ctx)
	require.Error(t, err)
}
