package loader

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/go-landcover-timeline/internal/layers"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/render"
)

type EventType string

const (
	EventFetched  EventType = "fetched"
	EventFailed   EventType = "failed"
	EventComplete EventType = "complete"
)

// Event reports progress of a load pass.
type Event struct {
	PassID string    `json:"pass_id"`
	Type   EventType `json:"type"`
	Year   int       `json:"year,omitempty"`
	Layers []string  `json:"layers,omitempty"`
	Error  string    `json:"error,omitempty"`
	Loaded int       `json:"loaded"`
	Failed int       `json:"failed"`
	Total  int       `json:"total"`
	Time   time.Time `json:"time"`
}

type Publisher interface {
	Publish(e Event)
}

// Result is the outcome of one load pass. It is not modified after the pass
// hands it over.
type Result struct {
	PassID   string
	Years    models.YearRange
	Mode     layers.ViewMode
	Units    map[int]models.RenderableUnit
	Failures []*models.LayerFetchError
	Started  time.Time
	Finished time.Time
}

func (r *Result) Unit(year int) (models.RenderableUnit, bool) {
	if r == nil {
		return models.RenderableUnit{}, false
	}
	u, ok := r.Units[year]
	return u, ok
}

// LoadedUnits returns the fetched units in year order.
func (r *Result) LoadedUnits() []models.RenderableUnit {
	if r == nil {
		return nil
	}
	years := make([]int, 0, len(r.Units))
	for y := range r.Units {
		years = append(years, y)
	}
	sort.Ints(years)
	units := make([]models.RenderableUnit, 0, len(years))
	for _, y := range years {
		units = append(units, r.Units[y])
	}
	return units
}

func (r *Result) FailedYears() []int {
	if r == nil {
		return nil
	}
	years := make([]int, 0, len(r.Failures))
	for _, f := range r.Failures {
		years = append(years, f.Year)
	}
	return years
}

// Loader fetches rendered content for every year of a range, one request at
// a time.
type Loader struct {
	renderer     render.Renderer
	resolver     *layers.Resolver
	years        models.YearRange
	mode         layers.ViewMode
	fetchTimeout time.Duration
	publisher    Publisher
	onComplete   func(*Result)
	now          func() time.Time
}

func New(renderer render.Renderer, resolver *layers.Resolver, years models.YearRange, mode layers.ViewMode, opts ...Option) *Loader {
	l := &Loader{
		renderer: renderer,
		resolver: resolver,
		years:    years,
		mode:     mode,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs one pass over the year range. A failed year is recorded and the
// pass moves on. If ctx is cancelled the remaining years are recorded as
// failed and ctx.Err() is returned with the partial result. The completion
// callback fires once either way.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	res := &Result{
		PassID:  uuid.NewString(),
		Years:   l.years,
		Mode:    l.mode,
		Units:   make(map[int]models.RenderableUnit, l.years.Count()),
		Started: l.now(),
	}
	total := l.years.Count()

	slog.Info("load pass starting", "pass_id", res.PassID, "mode", l.mode, "first", l.years.First, "last", l.years.Last)

	var cancelErr error
	for _, year := range l.years.Years() {
		if cancelErr == nil {
			cancelErr = ctx.Err()
		}
		if cancelErr != nil {
			res.Failures = append(res.Failures, &models.LayerFetchError{Year: year, Err: cancelErr})
			continue
		}

		layerSet, err := l.resolver.LayersFor(l.mode, year)
		if err == nil {
			var content string
			content, err = l.fetch(ctx, layerSet)
			if err == nil {
				res.Units[year] = models.RenderableUnit{
					Year:      year,
					Layers:    layerSet,
					Content:   content,
					FetchedAt: l.now(),
				}
				l.publish(Event{
					PassID: res.PassID, Type: EventFetched, Year: year, Layers: layerSet,
					Loaded: len(res.Units), Failed: len(res.Failures), Total: total,
				})
				continue
			}
		}

		fetchErr := &models.LayerFetchError{Year: year, Layers: layerSet, Err: err}
		res.Failures = append(res.Failures, fetchErr)
		slog.Error("layer fetch failed", "pass_id", res.PassID, "year", year, "layers", layerSet, "error", err)
		l.publish(Event{
			PassID: res.PassID, Type: EventFailed, Year: year, Layers: layerSet, Error: err.Error(),
			Loaded: len(res.Units), Failed: len(res.Failures), Total: total,
		})
	}

	res.Finished = l.now()
	slog.Info("load pass complete", "pass_id", res.PassID, "loaded", len(res.Units), "failed", len(res.Failures), "duration", res.Finished.Sub(res.Started))

	// The result is handed over before the complete event goes out, so a
	// subscriber that sees the event can also read the result.
	if l.onComplete != nil {
		l.onComplete(res)
	}
	l.publish(Event{
		PassID: res.PassID, Type: EventComplete,
		Loaded: len(res.Units), Failed: len(res.Failures), Total: total,
	})

	return res, cancelErr
}

func (l *Loader) fetch(ctx context.Context, layerSet layers.LayerSet) (string, error) {
	if l.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.fetchTimeout)
		defer cancel()
	}
	content, err := l.renderer.Render(ctx, layerSet)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", render.ErrEmptyContent
	}
	return content, nil
}

func (l *Loader) publish(e Event) {
	if l.publisher == nil {
		return
	}
	e.Time = l.now()
	l.publisher.Publish(e)
}
