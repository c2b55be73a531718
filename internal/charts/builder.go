package charts

import (
	"math"
	"strconv"

	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
)

// Config is a widget-agnostic chart description.
type Config struct {
	ChartType string   `json:"chart_type"`
	Title     string   `json:"title"`
	XAxis     string   `json:"x_axis"`
	YAxis     string   `json:"y_axis"`
	Unit      string   `json:"unit"`
	Series    []Series `json:"series"`
}

type Series struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Data  []Point `json:"data"`
}

type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

const burnColor = "#4e0400"

// UrbanBurnedArea charts burned hectares in "Urban and Built-up" for year.
func UrbanBurnedArea(agg *metrics.Aggregator, year int) (*Config, error) {
	burned, err := agg.UrbanBurnedArea(year)
	if err != nil {
		return nil, err
	}
	urban, _ := models.LookupCategory(models.CategoryUrban)
	return &Config{
		ChartType: "bar",
		Title:     "Burned Area in Urban and Built-up",
		XAxis:     "Land Cover",
		YAxis:     "Hectares Burned",
		Unit:      "ha",
		Series: []Series{{
			Name:  "Hectares Burned",
			Color: urban.Color,
			Data:  []Point{{Label: urban.Name, Value: round(burned)}},
		}},
	}, nil
}

// AffectedPopulation charts the population affected by burned area for year.
func AffectedPopulation(agg *metrics.Aggregator, year int) *Config {
	urban, _ := models.LookupCategory(models.CategoryUrban)
	return &Config{
		ChartType: "bar",
		Title:     "Affected Population by Burned Area",
		XAxis:     "Land Cover",
		YAxis:     "People Affected",
		Unit:      "pp.",
		Series: []Series{{
			Name:  "People Affected",
			Color: burnColor,
			Data:  []Point{{Label: urban.Name, Value: round(agg.PopulationAffected(year))}},
		}},
	}
}

// BurnedAreaByYear charts total burned hectares across years. Years without
// statistics are skipped.
func BurnedAreaByYear(agg *metrics.Aggregator, years models.YearRange) *Config {
	points := make([]Point, 0, years.Count())
	for _, y := range years.Years() {
		burned, err := agg.TotalBurnedArea(y)
		if err != nil {
			continue
		}
		points = append(points, Point{Label: strconv.Itoa(y), Value: round(burned)})
	}
	return &Config{
		ChartType: "line",
		Title:     "Total Year Burn",
		XAxis:     "Year",
		YAxis:     "Hectares Burned",
		Unit:      "ha",
		Series: []Series{{
			Name:  "Burned Area",
			Color: burnColor,
			Data:  points,
		}},
	}
}

// round keeps two decimals.
func round(v float64) float64 {
	return math.Round(v*100) / 100
}
