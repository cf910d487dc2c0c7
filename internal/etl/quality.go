package etl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
)

const (
	nullValuesSQL = `
SELECT COUNT(*)
FROM clean_infrastructure
WHERE infrastructure_score IS NULL`

	duplicatesSQL = `
SELECT COUNT(*)
FROM (
    SELECT country, year, COUNT(*) AS cnt
    FROM clean_infrastructure
    GROUP BY country, year
    HAVING COUNT(*) > 1
)`
)

// QualityChecker runs integrity assertions against clean_infrastructure
// and persists the report. A failed check is recorded, never fatal: only
// structural failures (missing relation, I/O) abort the stage.
type QualityChecker struct {
	sess      *engine.Session
	outputDir string
	logger    *slog.Logger
	now       func() time.Time
}

// NewQualityChecker creates the quality check stage.
func NewQualityChecker(sess *engine.Session, outputDir string, logger *slog.Logger) *QualityChecker {
	return &QualityChecker{
		sess:      sess,
		outputDir: outputDir,
		logger:    logger.With("component", "quality"),
		now:       time.Now,
	}
}

// Run evaluates every check in order and writes quality_report.json.
func (q *QualityChecker) Run(ctx context.Context) (*domain.QualityReport, error) {
	checks := []struct {
		name  string
		query string
		unit  string
	}{
		{domain.QualityCheckNullValues, nullValuesSQL, "null values"},
		{domain.QualityCheckDuplicates, duplicatesSQL, "duplicate records"},
	}

	report := &domain.QualityReport{
		Timestamp: q.now(),
		AllPassed: true,
	}

	for _, c := range checks {
		var count int64
		if err := q.sess.QueryRow(ctx, c.query).Scan(&count); err != nil {
			return nil, fmt.Errorf("quality check %s: %w", c.name, err)
		}

		result := domain.QualityCheckResult{
			CheckName: c.name,
			Passed:    count == 0,
			Details:   fmt.Sprintf("Found %d %s", count, c.unit),
		}
		report.Checks = append(report.Checks, result)
		report.AllPassed = report.AllPassed && result.Passed

		if result.Passed {
			q.logger.Info("quality check passed", "check", c.name)
		} else {
			q.logger.Warn("quality check failed", "check", c.name, "details", result.Details)
		}
	}

	reportPath := filepath.Join(q.outputDir, qualityReportFile)
	if err := writeJSON(reportPath, report); err != nil {
		return nil, domain.ErrIO("write %s: %v", reportPath, err)
	}
	q.logger.Info("quality checks complete", "all_passed", report.AllPassed, "path", reportPath)

	return report, nil
}
