package collector

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"infra-etl/internal/domain"
)

// sampleCountries drive the deterministic generator; list position sets the
// base score.
var sampleCountries = []string{
	"United States", "China", "Japan", "Germany", "India",
	"United Kingdom", "France", "Italy", "Brazil", "Canada",
	"South Korea", "Spain", "Australia", "Mexico", "Indonesia",
}

const (
	sampleFirstYear = 2010
	sampleLastYear  = 2023
)

// WriteSampleScores writes a synthetic infrastructure scores file under dir
// and reports the number of data rows written. Scores improve linearly over
// the years so derived trends are non-trivial.
func WriteSampleScores(dir string) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, domain.ErrIO("create raw data directory %s: %v", dir, err)
	}

	path := filepath.Join(dir, domain.ScoresFilename)
	f, err := os.Create(path)
	if err != nil {
		return 0, domain.ErrIO("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"country", "year", "infrastructure_score",
		"transport_resilience", "energy_resilience", "water_resilience", "digital_resilience"}
	if err := w.Write(header); err != nil {
		return 0, domain.ErrIO("write %s: %v", path, err)
	}

	rows := 0
	for i, country := range sampleCountries {
		base := 50.0 + float64(i)*2
		for year := sampleFirstYear; year <= sampleLastYear; year++ {
			score := base + float64(year-sampleFirstYear)*0.5
			record := []string{
				country,
				strconv.Itoa(year),
				formatScore(score),
				formatScore(score + 5),
				formatScore(score - 5),
				formatScore(score + 2),
				formatScore(score + 10),
			}
			if err := w.Write(record); err != nil {
				return 0, domain.ErrIO("write %s: %v", path, err)
			}
			rows++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, domain.ErrIO("write %s: %v", path, err)
	}
	return rows, nil
}

// formatScore keeps one decimal place; every synthetic value is a half step.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
