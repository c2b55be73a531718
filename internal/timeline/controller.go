package timeline

import (
	"strconv"
	"sync"

	"github.com/mr1hm/go-landcover-timeline/internal/loader"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
)

type Marker struct {
	Index     int    `json:"index"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// Controller owns the selected year index and the result of the load pass.
// Readers may call it concurrently with index updates.
type Controller struct {
	mu       sync.RWMutex
	years    models.YearRange
	selected int
	state    State
	result   *loader.Result
}

func NewController(years models.YearRange) *Controller {
	return &Controller{
		years: years,
		state: StateLoading,
	}
}

// MarkReady stores the load result and moves to Ready. Only the first call
// has an effect; it reports whether this call made the transition.
func (c *Controller) MarkReady(res *loader.Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateReady {
		return false
	}
	c.result = res
	c.state = StateReady
	return true
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Loading() bool {
	return c.State() == StateLoading
}

func (c *Controller) YearCount() int {
	return c.years.Count()
}

// SetSelectedIndex clamps i to the year range and returns the stored index.
func (c *Controller) SetSelectedIndex(i int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = clamp(i, 0, c.years.Count()-1)
	return c.selected
}

// SetYear selects year, clamped to the range.
func (c *Controller) SetYear(year int) int {
	return c.SetSelectedIndex(year - c.years.First)
}

func (c *Controller) SelectedIndex() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// CurrentYear is derived from the stored index, so it always agrees with the
// value the scrubber was just set to.
func (c *Controller) CurrentYear() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.years.First + c.selected
}

// CurrentUnit returns the unit for the selected year. ok is false while
// loading or when the year failed to load; the caller shows a placeholder.
func (c *Controller) CurrentUnit() (unit models.RenderableUnit, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return models.RenderableUnit{}, false
	}
	return c.result.Unit(c.years.First + c.selected)
}

// Markers returns one mark per year. Available is false for years whose
// content is not loaded.
func (c *Controller) Markers() []Marker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.markersLocked()
}

func (c *Controller) markersLocked() []Marker {
	marks := make([]Marker, 0, c.years.Count())
	for i, y := range c.years.Years() {
		_, ok := c.result.Unit(y)
		marks = append(marks, Marker{
			Index:     i,
			Label:     strconv.Itoa(y),
			Available: ok,
		})
	}
	return marks
}

func (c *Controller) Result() *loader.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	State         State                  `json:"state"`
	Loading       bool                   `json:"loading"`
	SelectedIndex int                    `json:"selected_index"`
	CurrentYear   int                    `json:"current_year"`
	Unit          *models.RenderableUnit `json:"-"`
	HasUnit       bool                   `json:"has_unit"`
	Metrics       *metrics.Summary       `json:"metrics,omitempty"`
	MetricsError  string                 `json:"metrics_error,omitempty"`
	Markers       []Marker               `json:"markers"`
	FailedYears   []int                  `json:"failed_years,omitempty"`
}

// Snapshot assembles the presentation output for the selected year. A
// metrics failure is reported in MetricsError rather than failing the whole
// snapshot.
func (c *Controller) Snapshot(agg *metrics.Aggregator) Snapshot {
	c.mu.RLock()
	year := c.years.First + c.selected
	snap := Snapshot{
		State:         c.state,
		Loading:       c.state == StateLoading,
		SelectedIndex: c.selected,
		CurrentYear:   year,
		Markers:       c.markersLocked(),
		FailedYears:   c.result.FailedYears(),
	}
	if c.state == StateReady {
		if u, ok := c.result.Unit(year); ok {
			snap.Unit = &u
			snap.HasUnit = true
		}
	}
	c.mu.RUnlock()

	if agg != nil {
		summary, err := agg.Summary(year)
		if err != nil {
			snap.MetricsError = err.Error()
		} else {
			snap.Metrics = &summary
		}
	}
	return snap
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
