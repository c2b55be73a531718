package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/mr1hm/go-landcover-timeline/internal/models"
)

// fileRecord mirrors the exported dataset. "burned_hectars" is the spelling
// used by the upstream export.
type fileRecord struct {
	Code                   *int    `json:"code,omitempty" yaml:"code,omitempty"`
	Name                   string  `json:"name" yaml:"name"`
	TotalLandCoverHectares float64 `json:"total_land_cover_hectares" yaml:"total_land_cover_hectares"`
	BurnedHectares         float64 `json:"burned_hectars" yaml:"burned_hectars"`
}

// LoadTableFile reads a land cover dataset shaped as
// {"<year>": {"<code>": {...}}}. YAML is used for .yaml/.yml files.
func LoadTableFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading statistics file: %w", err)
	}

	var data map[string]map[string]fileRecord
	if err := unmarshal(path, raw, &data); err != nil {
		return nil, fmt.Errorf("error decoding statistics file %s: %w", path, err)
	}
	return tableFromFile(data)
}

// LoadPopulationFile reads {"<year>": <population>}.
func LoadPopulationFile(path string) (*PopulationTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading population file: %w", err)
	}

	var data map[string]float64
	if err := unmarshal(path, raw, &data); err != nil {
		return nil, fmt.Errorf("error decoding population file %s: %w", path, err)
	}

	values := make(map[int]float64, len(data))
	for key, v := range data {
		year, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid year key %q: %w", key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative population %v for year %d", v, year)
		}
		values[year] = v
	}
	return NewPopulationTable(values), nil
}

func tableFromFile(data map[string]map[string]fileRecord) (*Table, error) {
	records := make(map[int][]models.LandCoverRecord, len(data))
	for yearKey, cats := range data {
		year, err := strconv.Atoi(strings.TrimSpace(yearKey))
		if err != nil {
			return nil, fmt.Errorf("invalid year key %q: %w", yearKey, err)
		}
		for codeKey, fr := range cats {
			code, err := strconv.Atoi(strings.TrimSpace(codeKey))
			if err != nil {
				return nil, fmt.Errorf("invalid category key %q in year %d: %w", codeKey, year, err)
			}
			if fr.Code != nil && *fr.Code != code {
				return nil, fmt.Errorf("category key %d does not match record code %d in year %d", code, *fr.Code, year)
			}
			if fr.TotalLandCoverHectares < 0 || fr.BurnedHectares < 0 {
				return nil, fmt.Errorf("negative hectares for category %d in year %d", code, year)
			}
			name := fr.Name
			if name == "" {
				if c, ok := models.LookupCategory(code); ok {
					name = c.Name
				}
			}
			records[year] = append(records[year], models.LandCoverRecord{
				CategoryCode:           code,
				Name:                   name,
				TotalLandCoverHectares: fr.TotalLandCoverHectares,
				BurnedHectares:         fr.BurnedHectares,
			})
		}
	}
	return NewTable(records)
}

func unmarshal(path string, raw []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(raw, v)
	default:
		return json.Unmarshal(raw, v)
	}
}
