package collector

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"infra-etl/internal/domain"
)

// defaultIndicators is the built-in set used when no manifest is given.
var defaultIndicators = []domain.Indicator{
	{Code: "EN.GHG.CO2.PC.CE.AR5", Name: "co2_emissions_per_capita"},
	{Code: "NY.GDP.PCAP.CD", Name: "gdp_per_capita"},
	{Code: "SP.POP.TOTL", Name: "population_total"},
	{Code: "EG.FEC.RNEW.ZS", Name: "renewable_energy_consumption"},
}

type indicatorManifest struct {
	Indicators []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
	} `yaml:"indicators"`
}

// LoadIndicators reads a YAML indicator manifest, or returns the built-in
// set when path is empty. Unknown manifest fields are rejected.
func LoadIndicators(path string) ([]domain.Indicator, error) {
	if path == "" {
		return defaultIndicators, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrIO("read indicator manifest %s: %v", path, err)
	}

	var manifest indicatorManifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&manifest); err != nil {
		return nil, domain.ErrValidation("parse indicator manifest %s: %v", path, err)
	}
	if len(manifest.Indicators) == 0 {
		return nil, domain.ErrValidation("indicator manifest %s lists no indicators", path)
	}

	out := make([]domain.Indicator, 0, len(manifest.Indicators))
	for _, m := range manifest.Indicators {
		ind := domain.Indicator{Code: m.Code, Name: m.Name}
		if err := ind.Validate(); err != nil {
			return nil, err
		}
		out = append(out, ind)
	}
	return out, nil
}
