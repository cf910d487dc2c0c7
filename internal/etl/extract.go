// Package etl implements the pipeline stages and their orchestration.
package etl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"infra-etl/internal/domain"
	"infra-etl/internal/engine"
)

// Input file discovery under the raw data directory.
const (
	requiredInputFile = domain.ScoresFilename
	auxiliaryPattern  = "worldbank_*.csv"
)

// Extractor loads raw CSV files into engine relations, one relation per
// source file, replacing prior contents.
type Extractor struct {
	sess   *engine.Session
	rawDir string
	logger *slog.Logger
}

// NewExtractor creates the extract stage.
func NewExtractor(sess *engine.Session, rawDir string, logger *slog.Logger) *Extractor {
	return &Extractor{sess: sess, rawDir: rawDir, logger: logger.With("component", "extract")}
}

// Run discovers and loads the required scores file plus any auxiliary
// worldbank files. A missing required file is logged, not fatal here: the
// transform stage fails the run when the relation is absent. Missing
// auxiliary files are expected and skipped silently.
func (e *Extractor) Run(ctx context.Context) error {
	required := filepath.Join(e.rawDir, requiredInputFile)
	if _, err := os.Stat(required); err == nil {
		if err := e.sess.ReadCSVInto(ctx, domain.RelationRawInfrastructure, required); err != nil {
			return fmt.Errorf("load %s: %w", requiredInputFile, err)
		}
		count, err := e.sess.Count(ctx, domain.RelationRawInfrastructure)
		if err != nil {
			return err
		}
		e.logger.Info("loaded infrastructure records",
			"relation", domain.RelationRawInfrastructure, "rows", count)
	} else {
		e.logger.Warn("required input file missing", "path", required)
	}

	matches, err := filepath.Glob(filepath.Join(e.rawDir, auxiliaryPattern))
	if err != nil {
		return fmt.Errorf("glob auxiliary files: %w", err)
	}
	for _, path := range matches {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		relation := "raw_" + sanitizeRelationName(stem)
		if err := e.sess.ReadCSVInto(ctx, relation, path); err != nil {
			return fmt.Errorf("load %s: %w", filepath.Base(path), err)
		}
		e.logger.Info("loaded auxiliary file", "file", filepath.Base(path), "relation", relation)
	}
	return nil
}

// sanitizeRelationName lowercases and keeps only [a-z0-9_] so file stems
// become safe relation names.
func sanitizeRelationName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
