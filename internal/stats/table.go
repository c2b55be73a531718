package stats

import (
	"fmt"
	"sort"

	"github.com/mr1hm/go-landcover-timeline/internal/models"
)

// Table is the year-indexed land cover statistics. It is immutable once built.
type Table struct {
	years map[int]map[int]models.LandCoverRecord
}

// NewTable copies records into a new Table. Category codes must be unique
// within a year.
func NewTable(records map[int][]models.LandCoverRecord) (*Table, error) {
	t := &Table{years: make(map[int]map[int]models.LandCoverRecord, len(records))}
	for year, recs := range records {
		byCode := make(map[int]models.LandCoverRecord, len(recs))
		for _, r := range recs {
			if _, dup := byCode[r.CategoryCode]; dup {
				return nil, fmt.Errorf("duplicate category %d in year %d", r.CategoryCode, year)
			}
			byCode[r.CategoryCode] = r
		}
		t.years[year] = byCode
	}
	return t, nil
}

// RecordsForYear returns a copy of the records for year keyed by category code.
func (t *Table) RecordsForYear(year int) (map[int]models.LandCoverRecord, error) {
	recs, ok := t.years[year]
	if !ok {
		return nil, fmt.Errorf("statistics for year %d: %w", year, models.ErrDataNotFound)
	}
	out := make(map[int]models.LandCoverRecord, len(recs))
	for code, r := range recs {
		out[code] = r
	}
	return out, nil
}

func (t *Table) Record(year, code int) (models.LandCoverRecord, error) {
	recs, ok := t.years[year]
	if !ok {
		return models.LandCoverRecord{}, fmt.Errorf("statistics for year %d: %w", year, models.ErrDataNotFound)
	}
	r, ok := recs[code]
	if !ok {
		return models.LandCoverRecord{}, fmt.Errorf("category %d in year %d: %w", code, year, models.ErrDataNotFound)
	}
	return r, nil
}

func (t *Table) HasYear(year int) bool {
	_, ok := t.years[year]
	return ok
}

// Years returns the loaded years in ascending order.
func (t *Table) Years() []int {
	years := make([]int, 0, len(t.years))
	for y := range t.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Each calls fn for every record, ordered by year then category code.
func (t *Table) Each(fn func(year int, r models.LandCoverRecord)) {
	for _, y := range t.Years() {
		codes := make([]int, 0, len(t.years[y]))
		for c := range t.years[y] {
			codes = append(codes, c)
		}
		sort.Ints(codes)
		for _, c := range codes {
			fn(y, t.years[y][c])
		}
	}
}

// PopulationTable maps a year to its affected population.
type PopulationTable struct {
	values map[int]float64
}

func NewPopulationTable(values map[int]float64) *PopulationTable {
	p := &PopulationTable{values: make(map[int]float64, len(values))}
	for y, v := range values {
		p.values[y] = v
	}
	return p
}

// ForYear returns the affected population, or 0 when the year is missing.
func (p *PopulationTable) ForYear(year int) float64 {
	if p == nil {
		return 0
	}
	return p.values[year]
}

func (p *PopulationTable) Years() []int {
	years := make([]int, 0, len(p.values))
	for y := range p.values {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
