package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/stats"
)

// Aggregator derives summary metrics from the statistics tables. It holds no
// mutable state.
type Aggregator struct {
	table        *stats.Table
	population   *stats.PopulationTable
	baselineYear int
}

func NewAggregator(table *stats.Table, population *stats.PopulationTable, baselineYear int) *Aggregator {
	return &Aggregator{
		table:        table,
		population:   population,
		baselineYear: baselineYear,
	}
}

func (a *Aggregator) BaselineYear() int {
	return a.baselineYear
}

func (a *Aggregator) TotalLandCover(year int) (float64, error) {
	recs, err := a.table.RecordsForYear(year)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range recs {
		total += r.TotalLandCoverHectares
	}
	return total, nil
}

func (a *Aggregator) TotalBurnedArea(year int) (float64, error) {
	recs, err := a.table.RecordsForYear(year)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, r := range recs {
		total += r.BurnedHectares
	}
	return total, nil
}

// PercentDegradation is the loss of total land cover relative to the
// baseline year, in percent.
func (a *Aggregator) PercentDegradation(year int) (float64, error) {
	baseline, err := a.TotalLandCover(a.baselineYear)
	if err != nil {
		return 0, fmt.Errorf("baseline: %w", err)
	}
	current, err := a.TotalLandCover(year)
	if err != nil {
		return 0, err
	}
	return percentChange(baseline, current, a.baselineYear)
}

// PercentDeforestation is PercentDegradation restricted to
// models.ForestCategories. A forest class missing from a year counts as zero
// hectares.
func (a *Aggregator) PercentDeforestation(year int) (float64, error) {
	baseline, err := a.forestCover(a.baselineYear)
	if err != nil {
		return 0, fmt.Errorf("baseline: %w", err)
	}
	current, err := a.forestCover(year)
	if err != nil {
		return 0, err
	}
	return percentChange(baseline, current, a.baselineYear)
}

func (a *Aggregator) PopulationAffected(year int) float64 {
	return a.population.ForYear(year)
}

// UrbanBurnedArea returns burned hectares in "Urban and Built-up", or 0 when
// the class is absent for the year.
func (a *Aggregator) UrbanBurnedArea(year int) (float64, error) {
	recs, err := a.table.RecordsForYear(year)
	if err != nil {
		return 0, err
	}
	if r, ok := recs[models.CategoryUrban]; ok {
		return r.BurnedHectares, nil
	}
	return 0, nil
}

func (a *Aggregator) forestCover(year int) (float64, error) {
	recs, err := a.table.RecordsForYear(year)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, code := range models.ForestCategories {
		total += recs[code].TotalLandCoverHectares
	}
	return total, nil
}

func percentChange(baseline, current float64, baselineYear int) (float64, error) {
	if baseline == 0 {
		return 0, fmt.Errorf("baseline total for %d is zero: %w", baselineYear, models.ErrDivisionByZero)
	}
	return 100 * (baseline - current) / baseline, nil
}

type Summary struct {
	Year                 int     `json:"year" yaml:"year"`
	PercentDegradation   float64 `json:"percent_degradation" yaml:"percent_degradation"`
	PercentDeforestation float64 `json:"percent_deforestation" yaml:"percent_deforestation"`
	TotalBurnedArea      float64 `json:"total_burned_area" yaml:"total_burned_area"`
	PopulationAffected   float64 `json:"population_affected" yaml:"population_affected"`
	UrbanBurnedArea      float64 `json:"urban_burned_area" yaml:"urban_burned_area"`

	Formatted FormattedSummary `json:"formatted" yaml:"formatted"`
}

type FormattedSummary struct {
	PercentDegradation   string `json:"percent_degradation" yaml:"percent_degradation"`
	PercentDeforestation string `json:"percent_deforestation" yaml:"percent_deforestation"`
	TotalBurnedArea      string `json:"total_burned_area" yaml:"total_burned_area"`
	PopulationAffected   string `json:"population_affected" yaml:"population_affected"`
}

// Summary computes every presentation metric for year. The first error
// encountered is returned.
func (a *Aggregator) Summary(year int) (Summary, error) {
	s := Summary{Year: year}

	var err error
	if s.PercentDegradation, err = a.PercentDegradation(year); err != nil {
		return Summary{}, err
	}
	if s.PercentDeforestation, err = a.PercentDeforestation(year); err != nil {
		return Summary{}, err
	}
	if s.TotalBurnedArea, err = a.TotalBurnedArea(year); err != nil {
		return Summary{}, err
	}
	if s.UrbanBurnedArea, err = a.UrbanBurnedArea(year); err != nil {
		return Summary{}, err
	}
	s.PopulationAffected = a.PopulationAffected(year)

	s.Formatted = FormattedSummary{
		PercentDegradation:   FormatMagnitude(s.PercentDegradation),
		PercentDeforestation: FormatMagnitude(s.PercentDeforestation),
		TotalBurnedArea:      FormatMagnitude(s.TotalBurnedArea),
		PopulationAffected:   FormatMagnitude(s.PopulationAffected),
	}
	return s, nil
}

// FormatMagnitude renders n with one decimal and an M/K suffix, dropping a
// trailing ".0": 2500000 -> "2.5M", 1000 -> "1K", 999 -> "999".
func FormatMagnitude(n float64) string {
	switch {
	case math.IsNaN(n) || math.IsInf(n, 0):
		return strconv.FormatFloat(n, 'f', -1, 64)
	case n >= 1_000_000:
		return oneDecimal(n/1_000_000) + "M"
	case n >= 1_000:
		return oneDecimal(n/1_000) + "K"
	default:
		return oneDecimal(n)
	}
}

func oneDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	if s == "-0" {
		return "0"
	}
	return s
}
