package collector

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"infra-etl/internal/domain"
	"infra-etl/internal/metrics"
)

// Output filenames written one directory above the raw data.
const (
	catalogFile = "data_catalog.csv"
	reportFile  = "collection_report.json"
)

// Collector runs a best-effort collection batch: indicator fetches that
// fail are logged and skipped, the batch proceeds.
type Collector struct {
	client  *WorldBankClient
	dataDir string
	rawDir  string
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a collector writing datasets under rawDir and the catalog and
// report under dataDir.
func New(client *WorldBankClient, dataDir, rawDir string, logger *slog.Logger) *Collector {
	return &Collector{
		client:  client,
		dataDir: dataDir,
		rawDir:  rawDir,
		logger:  logger.With("component", "collector"),
		now:     time.Now,
	}
}

// Run fetches every indicator, optionally generates the synthetic scores
// file, and inventories the raw directory into data_catalog.csv and
// collection_report.json. When nothing was collected, neither inventory
// file is written.
func (c *Collector) Run(ctx context.Context, indicators []domain.Indicator, sample bool) (*domain.CollectionReport, error) {
	if err := os.MkdirAll(c.rawDir, 0o755); err != nil {
		return nil, domain.ErrIO("create raw data directory %s: %v", c.rawDir, err)
	}

	for _, ind := range indicators {
		if err := c.collectIndicator(ctx, ind); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.DatasetsFetched.WithLabelValues("error").Inc()
			c.logger.Warn("indicator collection failed", "indicator", ind.Code, "error", err)
			continue
		}
		metrics.DatasetsFetched.WithLabelValues("success").Inc()
	}

	if sample {
		rows, err := WriteSampleScores(c.rawDir)
		if err != nil {
			return nil, err
		}
		c.logger.Info("generated sample scores", "file", domain.ScoresFilename, "rows", rows)
	}

	catalog, err := c.buildCatalog()
	if err != nil {
		return nil, err
	}

	report := &domain.CollectionReport{
		RunDate:           c.now(),
		DatasetsCollected: len(catalog),
		DataDirectory:     c.rawDir,
	}
	for _, d := range catalog {
		report.TotalSizeMB += d.SizeMB
	}

	if len(catalog) == 0 {
		c.logger.Warn("no datasets collected")
		return report, nil
	}

	reportPath := filepath.Join(c.dataDir, reportFile)
	if err := writeJSON(reportPath, report); err != nil {
		return nil, domain.ErrIO("write %s: %v", reportPath, err)
	}
	c.logger.Info("collection complete",
		"datasets", report.DatasetsCollected, "total_size_mb", report.TotalSizeMB)

	return report, nil
}

func (c *Collector) collectIndicator(ctx context.Context, ind domain.Indicator) error {
	if err := ind.Validate(); err != nil {
		return err
	}

	obs, err := c.client.FetchIndicator(ctx, ind)
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return fmt.Errorf("upstream returned no rows for %s", ind.Code)
	}

	path := filepath.Join(c.rawDir, "worldbank_"+ind.Name+".csv")
	if err := writeObservationsCSV(path, obs); err != nil {
		return err
	}
	c.logger.Info("collected indicator",
		"indicator", ind.Code, "file", filepath.Base(path), "rows", len(obs))
	return nil
}

// buildCatalog inventories every CSV under the raw directory and writes
// data_catalog.csv when at least one file is readable.
func (c *Collector) buildCatalog() ([]domain.DatasetInfo, error) {
	matches, err := filepath.Glob(filepath.Join(c.rawDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob raw directory: %w", err)
	}

	var infos []domain.DatasetInfo
	for _, path := range matches {
		info, err := inspectCSV(path)
		if err != nil {
			c.logger.Warn("skipping unreadable file", "file", filepath.Base(path), "error", err)
			continue
		}
		infos = append(infos, info)
	}
	if len(infos) == 0 {
		return nil, nil
	}

	catalogPath := filepath.Join(c.dataDir, catalogFile)
	if err := writeCatalogCSV(catalogPath, infos); err != nil {
		return nil, domain.ErrIO("write %s: %v", catalogPath, err)
	}
	c.logger.Info("cataloged datasets", "count", len(infos), "path", catalogPath)
	return infos, nil
}

func inspectCSV(path string) (domain.DatasetInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("read header: %w", err)
	}

	rows := 0
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.DatasetInfo{}, fmt.Errorf("read rows: %w", err)
		}
		rows++
	}

	st, err := f.Stat()
	if err != nil {
		return domain.DatasetInfo{}, err
	}

	return domain.DatasetInfo{
		Filename:   filepath.Base(path),
		Rows:       rows,
		Columns:    len(header),
		SizeMB:     math.Round(float64(st.Size())/(1024*1024)*100) / 100,
		Downloaded: st.ModTime(),
	}, nil
}

func writeObservationsCSV(path string, obs []Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.ErrIO("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"country_name", "country_code", "year", "value"}); err != nil {
		return domain.ErrIO("write %s: %v", path, err)
	}
	for _, o := range obs {
		record := []string{
			o.CountryName,
			o.CountryCode,
			strconv.Itoa(o.Year),
			strconv.FormatFloat(o.Value, 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return domain.ErrIO("write %s: %v", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.ErrIO("write %s: %v", path, err)
	}
	return nil
}

func writeCatalogCSV(path string, infos []domain.DatasetInfo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"filename", "rows", "columns", "size_mb", "downloaded"}); err != nil {
		return err
	}
	for _, d := range infos {
		record := []string{
			d.Filename,
			strconv.Itoa(d.Rows),
			strconv.Itoa(d.Columns),
			strconv.FormatFloat(d.SizeMB, 'f', 2, 64),
			d.Downloaded.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
