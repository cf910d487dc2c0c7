package etl_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"infra-etl/internal/engine"
	"infra-etl/internal/etl"
)

var ctx = context.Background()

const scoresCSV = `country,year,infrastructure_score,transport_resilience,energy_resilience,water_resilience,digital_resilience
Atlantis,2015,55.5,50,52,58,62
Borduria,2015,61.2,60,62,58,64
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(t *testing.T) *engine.Session {
	t.Helper()
	sess, err := engine.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// seedRawInfrastructure loads two countries across 2009-2012. The 2009
// rows sit below the transform cutoff and must be dropped. In 2011 both
// countries score 52.0, producing a rank tie.
func seedRawInfrastructure(t *testing.T, sess *engine.Session) {
	t.Helper()
	require.NoError(t, sess.Exec(ctx, `
CREATE TABLE raw_infrastructure (
    country VARCHAR,
    year INTEGER,
    infrastructure_score DOUBLE,
    transport_resilience DOUBLE,
    energy_resilience DOUBLE,
    water_resilience DOUBLE,
    digital_resilience DOUBLE
)`))
	require.NoError(t, sess.Exec(ctx, `
INSERT INTO raw_infrastructure VALUES
    ('Atlantis', 2009, 40.0, 38, 40, 42, 40),
    ('Atlantis', 2010, 50.0, 48, 50, 52, 50),
    ('Atlantis', 2011, 52.0, 50, 52, 54, 52),
    ('Atlantis', 2012, 56.0, 54, 56, 58, 56),
    ('Borduria', 2010, 60.0, 58, 60, 62, 60),
    ('Borduria', 2011, 52.0, 50, 52, 54, 52),
    ('Borduria', 2012, 58.0, 56, 58, 60, 58)`))
}

func seedDerivedRelations(t *testing.T, sess *engine.Session) {
	t.Helper()
	seedRawInfrastructure(t, sess)
	require.NoError(t, etl.NewTransformer(sess, discardLogger()).Run(ctx))
}
