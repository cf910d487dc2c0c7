package etl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-etl/internal/config"
	"infra-etl/internal/db"
	"infra-etl/internal/db/repository"
	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
	"infra-etl/internal/etl"
	"infra-etl/internal/testutil"
)

func pipelineConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	cfg := &config.Config{
		DataDir:    dataDir,
		OutputDir:  filepath.Join(dataDir, "final"),
		DuckDBPath: ":memory:",
	}
	require.NoError(t, os.MkdirAll(cfg.RawDir(), 0o755))
	return cfg
}

func TestOrchestrator_FullRun(t *testing.T) {
	cfg := pipelineConfig(t)
	writeFile(t, cfg.RawDir(), "infrastructure_resilience_scores.csv", scoresCSV)

	orch := etl.NewOrchestrator(cfg, nil, discardLogger())
	assert.Equal(t, etl.StateIdle, orch.State())

	res, err := orch.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, etl.StateDone, res.State)
	assert.Equal(t, etl.StateDone, orch.State())
	assert.NotEmpty(t, res.RunID)
	assert.Empty(t, res.FailedStage)
	assert.Positive(t, res.Duration)

	require.NotNil(t, res.Metadata)
	assert.Equal(t, int64(2), res.Metadata.RecordCounts["clean_infrastructure"])
	assert.Equal(t, int64(2), res.Metadata.RecordCounts["country_summary"])
	assert.Equal(t, int64(1), res.Metadata.RecordCounts["yearly_trends"])

	require.NotNil(t, res.Quality)
	assert.True(t, res.Quality.AllPassed)

	for _, name := range []string{
		"clean_infrastructure.parquet", "clean_infrastructure.csv",
		"country_summary.parquet", "country_summary.csv",
		"yearly_trends.parquet", "yearly_trends.csv",
		"top_performers.csv", "pipeline_metadata.json", "quality_report.json",
	} {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		assert.NoError(t, err, name)
	}
}

func TestOrchestrator_MissingInputFailsAtTransform(t *testing.T) {
	cfg := pipelineConfig(t)

	orch := etl.NewOrchestrator(cfg, nil, discardLogger())
	res, err := orch.Run(ctx)
	require.Error(t, err)

	var missing *domain.MissingInputError
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, etl.StateFailed, res.State)
	assert.Equal(t, etl.StateFailed, orch.State())
	assert.Equal(t, domain.StageTransform, res.FailedStage)

	// No outputs on a failed run: the load stage never ran.
	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_RecordsRunHistory(t *testing.T) {
	cfg := pipelineConfig(t)
	writeFile(t, cfg.RawDir(), "infrastructure_resilience_scores.csv", scoresCSV)

	runs := repository.NewRunHistoryRepo(db.OpenTestMetastore(t))
	_, err := etl.NewOrchestrator(cfg, runs, discardLogger()).Run(ctx)
	require.NoError(t, err)

	recorded, err := runs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)

	run := recorded[0]
	assert.Equal(t, domain.RunStatusSuccess, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.Nil(t, run.FailedStage)
	assert.Nil(t, run.ErrorMessage)
	require.NotNil(t, run.AllQualityPassed)
	assert.True(t, *run.AllQualityPassed)
	require.NotNil(t, run.RecordCounts)
	assert.Contains(t, *run.RecordCounts, `"clean_infrastructure":2`)
}

func TestOrchestrator_RecordsFailedRun(t *testing.T) {
	cfg := pipelineConfig(t)

	runs := repository.NewRunHistoryRepo(db.OpenTestMetastore(t))
	_, err := etl.NewOrchestrator(cfg, runs, discardLogger()).Run(ctx)
	require.Error(t, err)

	recorded, err := runs.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recorded, 1)

	run := recorded[0]
	assert.Equal(t, domain.RunStatusFailed, run.Status)
	require.NotNil(t, run.FailedStage)
	assert.Equal(t, domain.StageTransform, *run.FailedStage)
	require.NotNil(t, run.ErrorMessage)
	assert.NotEmpty(t, *run.ErrorMessage)
	assert.Nil(t, run.AllQualityPassed)

	// Nothing was exported: the load stage never ran.
	assert.NoDirExists(t, cfg.OutputDir)
}

func TestOrchestrator_RunHistoryFailureIsNonFatal(t *testing.T) {
	cfg := pipelineConfig(t)
	writeFile(t, cfg.RawDir(), "infrastructure_resilience_scores.csv", scoresCSV)

	runs := &testutil.MockRunRepo{
		InsertFn: func(context.Context, *domain.EtlRun) error {
			return errors.New("metastore offline")
		},
		FinishFn: func(context.Context, string, domain.RunCompletion) error {
			return errors.New("metastore offline")
		},
	}

	res, err := etl.NewOrchestrator(cfg, runs, discardLogger()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, etl.StateDone, res.State)
	assert.Empty(t, runs.Inserted)
	assert.Empty(t, runs.Completions)
}

func TestOrchestrator_PersistentEngineFile(t *testing.T) {
	cfg := pipelineConfig(t)
	cfg.DuckDBPath = filepath.Join(cfg.DataDir, "analytics.duckdb")
	writeFile(t, cfg.RawDir(), "infrastructure_resilience_scores.csv", scoresCSV)

	_, err := etl.NewOrchestrator(cfg, nil, discardLogger()).Run(ctx)
	require.NoError(t, err)

	// The session was closed on completion, so the file reopens cleanly
	// and still holds the derived relations.
	_, statErr := os.Stat(cfg.DuckDBPath)
	require.NoError(t, statErr)

	sess, err := engine.Open(cfg.DuckDBPath)
	require.NoError(t, err)
	defer sess.Close()

	exists, err := sess.TableExists(ctx, "clean_infrastructure")
	require.NoError(t, err)
	assert.True(t, exists)
}
