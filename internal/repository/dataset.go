package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mr1hm/go-landcover-timeline/internal/stats"
)

var ErrNoDataset = errors.New("no land cover statistics available")

// Bootstrap imports whichever dataset files exist into repo and then reads
// both tables back, so a database populated by an earlier run serves when
// the files are gone. An empty path skips that file.
func Bootstrap(ctx context.Context, repo StatsRepository, statsPath, populationPath string) (*stats.Table, *stats.PopulationTable, error) {
	ok, err := fileExists(statsPath)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		tbl, err := stats.LoadTableFile(statsPath)
		if err != nil {
			return nil, nil, err
		}
		n, err := repo.ImportStatistics(ctx, tbl)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("imported land cover statistics", "path", statsPath, "records", n)
	}

	ok, err = fileExists(populationPath)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		pop, err := stats.LoadPopulationFile(populationPath)
		if err != nil {
			return nil, nil, err
		}
		n, err := repo.ImportPopulation(ctx, pop)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("imported affected population", "path", populationPath, "years", n)
	}

	tbl, err := repo.LoadStatistics(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(tbl.Years()) == 0 {
		return nil, nil, fmt.Errorf("%w: import %s first", ErrNoDataset, statsPath)
	}
	pop, err := repo.LoadPopulation(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tbl, pop, nil
}

func fileExists(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking %s: %w", path, err)
	}
	return true, nil
}
