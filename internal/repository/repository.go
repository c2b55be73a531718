package repository

import (
	"context"

	"github.com/mr1hm/go-landcover-timeline/internal/stats"
)

// StatsRepository stores the land cover and population datasets.
type StatsRepository interface {
	ImportStatistics(ctx context.Context, t *stats.Table) (int, error)
	ImportPopulation(ctx context.Context, p *stats.PopulationTable) (int, error)
	LoadStatistics(ctx context.Context) (*stats.Table, error)
	LoadPopulation(ctx context.Context) (*stats.PopulationTable, error)
}
