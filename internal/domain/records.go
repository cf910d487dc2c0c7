package domain

import "time"

// Relation names produced and consumed by the pipeline stages.
const (
	RelationRawInfrastructure   = "raw_infrastructure"
	RelationCleanInfrastructure = "clean_infrastructure"
	RelationCountrySummary      = "country_summary"
	RelationYearlyTrends        = "yearly_trends"
	RelationTopPerformers       = "top_performers"
)

// ScoresFilename is the required raw input file: the collector writes it,
// the extract stage reads it.
const ScoresFilename = "infrastructure_resilience_scores.csv"

// RawInfrastructureRecord is one row of the required input file, one per
// (country, year) pair. Duplicates are possible at this stage; they are the
// subject of a later quality check.
type RawInfrastructureRecord struct {
	Country             string
	Year                int32
	InfrastructureScore float64
	TransportResilience float64
	EnergyResilience    float64
	WaterResilience     float64
	DigitalResilience   float64
}

// CleanInfrastructureRecord extends the raw record with derived fields,
// filtered to year >= 2010 and ordered by (country, year).
type CleanInfrastructureRecord struct {
	RawInfrastructureRecord

	// AvgResilience is the mean of the four resilience scores.
	AvgResilience float64
	// ScoreChange is the difference from the same country's immediately
	// preceding year present in the data; nil when no prior year exists.
	ScoreChange *float64
	// YearlyRank ranks infrastructure_score within the year, descending,
	// standard competition ranking: ties share a rank, the next rank skips.
	YearlyRank int64
}

// CountrySummaryRecord aggregates a country's lifetime metrics.
type CountrySummaryRecord struct {
	Country          string
	FirstYear        int32
	LastYear         int32
	NumYears         int64
	AvgScore         float64
	MinScore         float64
	MaxScore         float64
	ScoreImprovement float64
	// AvgYearlyChange is the mean of non-null score changes; nil for a
	// country with a single year of data.
	AvgYearlyChange *float64
}

// YearlyTrendRecord aggregates global metrics for one year.
type YearlyTrendRecord struct {
	Year           int32
	GlobalAvgScore float64
	// ScoreStdDev is the sample standard deviation (N-1 denominator); nil
	// when the year has fewer than two countries.
	ScoreStdDev  *float64
	MinScore     float64
	MaxScore     float64
	NumCountries int64
}

// TopPerformerRecord is one row of the top-performers view: countries of the
// most recent year present, ordered by latest score descending, at most 10.
type TopPerformerRecord struct {
	Country          string
	AvgScore         float64
	ScoreImprovement float64
	LatestScore      float64
	LatestRank       int64
}

// PipelineMetadata describes one pipeline run for downstream consumers. The
// contract consumers rely on is PipelineRun and RecordCounts.
type PipelineMetadata struct {
	PipelineRun   time.Time        `json:"pipeline_run"`
	TablesCreated []string         `json:"tables_created"`
	RecordCounts  map[string]int64 `json:"record_counts"`
}
