package domain

import "time"

// Indicator identifies one upstream dataset to collect.
type Indicator struct {
	// Code is the World Bank indicator code, e.g. NY.GDP.PCAP.CD.
	Code string
	// Name is the dataset slug used in filenames and relation names.
	Name string
}

// Validate checks that the indicator is well-formed.
func (i Indicator) Validate() error {
	if i.Code == "" {
		return ErrValidation("indicator code is required")
	}
	if i.Name == "" {
		return ErrValidation("indicator name is required: %s", i.Code)
	}
	return nil
}

// DatasetInfo is one data-catalog row describing a collected file.
type DatasetInfo struct {
	Filename   string
	Rows       int
	Columns    int
	SizeMB     float64
	Downloaded time.Time
}

// CollectionReport summarizes one collector run.
type CollectionReport struct {
	RunDate           time.Time `json:"run_date"`
	DatasetsCollected int       `json:"datasets_collected"`
	TotalSizeMB       float64   `json:"total_size_mb"`
	DataDirectory     string    `json:"data_directory"`
}
