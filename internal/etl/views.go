package etl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
)

// The maximum year is re-derived on every run rather than assumed.
const topPerformersSQL = `
CREATE OR REPLACE VIEW top_performers AS
SELECT
    c.country,
    c.avg_score,
    c.score_improvement,
    ci.infrastructure_score AS latest_score,
    ci.yearly_rank AS latest_rank
FROM country_summary c
JOIN clean_infrastructure ci ON c.country = ci.country
WHERE ci.year = (SELECT MAX(year) FROM clean_infrastructure)
ORDER BY ci.infrastructure_score DESC
LIMIT 10`

// ViewBuilder derives the top-performers view and exports it as CSV only.
type ViewBuilder struct {
	sess      *engine.Session
	outputDir string
	logger    *slog.Logger
}

// NewViewBuilder creates the analytics view stage.
func NewViewBuilder(sess *engine.Session, outputDir string, logger *slog.Logger) *ViewBuilder {
	return &ViewBuilder{sess: sess, outputDir: outputDir, logger: logger.With("component", "views")}
}

// Run creates the top_performers view and writes top_performers.csv.
func (v *ViewBuilder) Run(ctx context.Context) error {
	if err := v.sess.Exec(ctx, topPerformersSQL); err != nil {
		return fmt.Errorf("create %s view: %w", domain.RelationTopPerformers, err)
	}

	csvPath := filepath.Join(v.outputDir, domain.RelationTopPerformers+".csv")
	if err := v.sess.ExportCSV(ctx, domain.RelationTopPerformers, csvPath); err != nil {
		return domain.ErrIO("export %s to %s: %v", domain.RelationTopPerformers, csvPath, err)
	}

	v.logger.Info("built analytics view", "relation", domain.RelationTopPerformers, "path", csvPath)
	return nil
}
