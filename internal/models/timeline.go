package models

import "time"

type YearRange struct {
	First int
	Last  int
}

// DefaultYearRange is the span covered by the bundled datasets.
var DefaultYearRange = YearRange{First: 2010, Last: 2020}

func (r YearRange) Count() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

func (r YearRange) Contains(year int) bool {
	return year >= r.First && year <= r.Last
}

func (r YearRange) Years() []int {
	years := make([]int, 0, r.Count())
	for y := r.First; y <= r.Last; y++ {
		years = append(years, y)
	}
	return years
}

// RenderableUnit is rendered map content for one year. It is never mutated
// after the loader creates it.
type RenderableUnit struct {
	Year      int
	Layers    []string
	Content   string
	FetchedAt time.Time
}
