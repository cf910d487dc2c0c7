package etl

import (
	"context"
	"fmt"
	"log/slog"

	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
)

// requiredColumns must all be present on raw_infrastructure before any
// derivation runs.
var requiredColumns = []string{
	"country",
	"year",
	"infrastructure_score",
	"transport_resilience",
	"energy_resilience",
	"water_resilience",
	"digital_resilience",
}

// Derivation SQL. The year >= 2010 filter is applied before the window
// functions, so score_change never reaches back into dropped years.
// RANK() gives competition ranking: ties share a rank, the next rank skips.
const (
	cleanInfrastructureSQL = `
CREATE OR REPLACE TABLE clean_infrastructure AS
SELECT
    country,
    year,
    infrastructure_score,
    transport_resilience,
    energy_resilience,
    water_resilience,
    digital_resilience,
    (transport_resilience + energy_resilience + water_resilience + digital_resilience) / 4 AS avg_resilience,
    infrastructure_score - LAG(infrastructure_score, 1) OVER (PARTITION BY country ORDER BY year) AS score_change,
    RANK() OVER (PARTITION BY year ORDER BY infrastructure_score DESC) AS yearly_rank
FROM raw_infrastructure
WHERE year >= 2010
ORDER BY country, year`

	countrySummarySQL = `
CREATE OR REPLACE TABLE country_summary AS
SELECT
    country,
    MIN(year) AS first_year,
    MAX(year) AS last_year,
    COUNT(*) AS num_years,
    AVG(infrastructure_score) AS avg_score,
    MIN(infrastructure_score) AS min_score,
    MAX(infrastructure_score) AS max_score,
    MAX(infrastructure_score) - MIN(infrastructure_score) AS score_improvement,
    AVG(score_change) AS avg_yearly_change
FROM clean_infrastructure
GROUP BY country`

	yearlyTrendsSQL = `
CREATE OR REPLACE TABLE yearly_trends AS
SELECT
    year,
    AVG(infrastructure_score) AS global_avg_score,
    STDDEV(infrastructure_score) AS score_std_dev,
    MIN(infrastructure_score) AS min_score,
    MAX(infrastructure_score) AS max_score,
    COUNT(DISTINCT country) AS num_countries
FROM clean_infrastructure
GROUP BY year
ORDER BY year`
)

// Transformer derives the cleaned and aggregated relations from
// raw_infrastructure. All derived relations are rebuilt from scratch.
type Transformer struct {
	sess   *engine.Session
	logger *slog.Logger
}

// NewTransformer creates the transform stage.
func NewTransformer(sess *engine.Session, logger *slog.Logger) *Transformer {
	return &Transformer{sess: sess, logger: logger.With("component", "transform")}
}

// Run verifies the raw relation and its schema, then builds
// clean_infrastructure, country_summary, and yearly_trends.
func (t *Transformer) Run(ctx context.Context) error {
	if err := t.verifyInput(ctx); err != nil {
		return err
	}

	derivations := []struct {
		relation string
		query    string
	}{
		{domain.RelationCleanInfrastructure, cleanInfrastructureSQL},
		{domain.RelationCountrySummary, countrySummarySQL},
		{domain.RelationYearlyTrends, yearlyTrendsSQL},
	}

	for _, d := range derivations {
		if err := t.sess.Exec(ctx, d.query); err != nil {
			return fmt.Errorf("derive %s: %w", d.relation, err)
		}
		count, err := t.sess.Count(ctx, d.relation)
		if err != nil {
			return err
		}
		t.logger.Info("derived relation", "relation", d.relation, "rows", count)
	}
	return nil
}

// verifyInput fails fast with MissingInputError when the raw relation was
// never loaded, and with SchemaError when a required column is absent.
func (t *Transformer) verifyInput(ctx context.Context) error {
	exists, err := t.sess.TableExists(ctx, domain.RelationRawInfrastructure)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrMissingInput("required relation %q not loaded: expected %s under the raw data directory",
			domain.RelationRawInfrastructure, requiredInputFile)
	}

	cols, err := t.sess.ColumnNames(ctx, domain.RelationRawInfrastructure)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c] = true
	}
	for _, c := range requiredColumns {
		if !have[c] {
			return domain.ErrSchema("required column %q missing from %s",
				c, domain.RelationRawInfrastructure)
		}
	}
	return nil
}
