package etl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
)

// Output filenames under the output directory.
const (
	metadataFile      = "pipeline_metadata.json"
	qualityReportFile = "quality_report.json"
)

// exportedRelations are written by the load stage, in this order, as both
// Parquet and CSV.
var exportedRelations = []string{
	domain.RelationCleanInfrastructure,
	domain.RelationCountrySummary,
	domain.RelationYearlyTrends,
}

// Loader persists the derived relations and the run metadata. Outputs with
// the same names are overwritten, so re-running is idempotent by file
// identity.
type Loader struct {
	sess      *engine.Session
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoader creates the load stage.
func NewLoader(sess *engine.Session, outputDir string, logger *slog.Logger) *Loader {
	return &Loader{
		sess:      sess,
		outputDir: outputDir,
		logger:    logger.With("component", "load"),
		now:       time.Now,
	}
}

// Run exports each derived relation as <name>.parquet and <name>.csv and
// writes pipeline_metadata.json describing the run.
func (l *Loader) Run(ctx context.Context) (*domain.PipelineMetadata, error) {
	if err := os.MkdirAll(l.outputDir, 0o755); err != nil {
		return nil, domain.ErrIO("create output directory %s: %v", l.outputDir, err)
	}

	meta := &domain.PipelineMetadata{
		PipelineRun:   l.now(),
		TablesCreated: exportedRelations,
		RecordCounts:  make(map[string]int64, len(exportedRelations)),
	}

	for _, relation := range exportedRelations {
		parquetPath := filepath.Join(l.outputDir, relation+".parquet")
		if err := l.sess.ExportParquet(ctx, relation, parquetPath); err != nil {
			return nil, domain.ErrIO("export %s to %s: %v", relation, parquetPath, err)
		}

		csvPath := filepath.Join(l.outputDir, relation+".csv")
		if err := l.sess.ExportCSV(ctx, relation, csvPath); err != nil {
			return nil, domain.ErrIO("export %s to %s: %v", relation, csvPath, err)
		}

		count, err := l.sess.Count(ctx, relation)
		if err != nil {
			return nil, err
		}
		meta.RecordCounts[relation] = count
		l.logger.Info("exported relation", "relation", relation, "rows", count)
	}

	metaPath := filepath.Join(l.outputDir, metadataFile)
	if err := writeJSON(metaPath, meta); err != nil {
		return nil, domain.ErrIO("write %s: %v", metaPath, err)
	}
	l.logger.Info("wrote pipeline metadata", "path", metaPath)

	return meta, nil
}

// writeJSON marshals v with two-space indentation and writes it to path.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
