package layers

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mr1hm/go-landcover-timeline/internal/models"
)

var ErrUnknownViewMode = errors.New("unknown view mode")

// LayerSet is the ordered list of layer identifiers rendered for one map.
type LayerSet []string

type ViewMode string

const (
	ViewLandCoverBurn ViewMode = "landcover-burn"
	ViewPrediction    ViewMode = "prediction"
	ViewUrban         ViewMode = "urban"
	ViewPopulation    ViewMode = "population"
	ViewForest        ViewMode = "forest"
	ViewBoundaries    ViewMode = "boundaries"
)

// Strategy builds the layer set of one view mode for a year.
type Strategy func(year int) LayerSet

// Resolver maps a view mode and year to a LayerSet.
type Resolver struct {
	mu         sync.RWMutex
	strategies map[ViewMode]Strategy
}

// NewResolver returns a Resolver with the built-in view modes registered.
func NewResolver() *Resolver {
	r := &Resolver{strategies: make(map[ViewMode]Strategy)}
	r.strategies[ViewLandCoverBurn] = landCoverBurn
	r.strategies[ViewPrediction] = prediction
	r.strategies[ViewUrban] = urban
	r.strategies[ViewPopulation] = population
	r.strategies[ViewForest] = forest
	r.strategies[ViewBoundaries] = boundaries
	return r
}

// Register adds a view mode. Existing modes cannot be replaced.
func (r *Resolver) Register(mode ViewMode, s Strategy) error {
	if mode == "" || s == nil {
		return fmt.Errorf("invalid strategy for mode %q", mode)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[mode]; exists {
		return fmt.Errorf("view mode %q already registered", mode)
	}
	r.strategies[mode] = s
	return nil
}

func (r *Resolver) LayersFor(mode ViewMode, year int) (LayerSet, error) {
	r.mu.RLock()
	s, ok := r.strategies[mode]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownViewMode, mode)
	}
	return s(year), nil
}

func (r *Resolver) Has(mode ViewMode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[mode]
	return ok
}

// Modes returns the registered view modes sorted by name.
func (r *Resolver) Modes() []ViewMode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modes := make([]ViewMode, 0, len(r.strategies))
	for m := range r.strategies {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

func ParseViewMode(s string) ViewMode {
	return ViewMode(strings.ToLower(strings.TrimSpace(s)))
}

func landCoverBurn(year int) LayerSet {
	y := strconv.Itoa(year)
	return LayerSet{"landcover_" + y, "burn_" + y}
}

func prediction(int) LayerSet {
	return LayerSet{"prediction"}
}

func urban(year int) LayerSet {
	y := strconv.Itoa(year)
	return LayerSet{"urban_" + y, "burn_" + y}
}

func population(year int) LayerSet {
	return LayerSet{"population", "burn_" + strconv.Itoa(year)}
}

// forest masks each forest class separately: landcover_only_<Name>_<year>.
func forest(year int) LayerSet {
	y := strconv.Itoa(year)
	set := make(LayerSet, 0, len(models.ForestCategories))
	for _, code := range models.ForestCategories {
		c, _ := models.LookupCategory(code)
		set = append(set, "landcover_only_"+c.Name+"_"+y)
	}
	return set
}

func boundaries(int) LayerSet {
	return LayerSet{"Brazil", "biomes"}
}
