package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/stats"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func testTable(t *testing.T) *stats.Table {
	tbl, err := stats.NewTable(map[int][]models.LandCoverRecord{
		2010: {
			{CategoryCode: 1, Name: "Evergreen Needleleaf Forest", TotalLandCoverHectares: 100, BurnedHectares: 10},
			{CategoryCode: 13, Name: "Urban and Built-up", TotalLandCoverHectares: 30, BurnedHectares: 1.5},
		},
		2011: {
			{CategoryCode: 1, Name: "Evergreen Needleleaf Forest", TotalLandCoverHectares: 95, BurnedHectares: 12},
		},
	})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return tbl
}

func TestSQLiteDB_ImportAndLoadStatistics(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	n, err := db.ImportStatistics(ctx, testTable(t))
	if err != nil {
		t.Fatalf("ImportStatistics failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows imported, got %d", n)
	}

	got, err := db.LoadStatistics(ctx)
	if err != nil {
		t.Fatalf("LoadStatistics failed: %v", err)
	}

	r, err := got.Record(2010, 13)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if r.Name != "Urban and Built-up" || r.BurnedHectares != 1.5 {
		t.Errorf("unexpected record %+v", r)
	}
	if _, err := got.RecordsForYear(2012); !errors.Is(err, models.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound for 2012, got %v", err)
	}
}

func TestSQLiteDB_ImportStatisticsReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if _, err := db.ImportStatistics(ctx, testTable(t)); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	// The corrected dataset drops category 13 from 2010 and the whole of 2011
	corrected, err := stats.NewTable(map[int][]models.LandCoverRecord{
		2010: {{CategoryCode: 1, Name: "Evergreen Needleleaf Forest", TotalLandCoverHectares: 100, BurnedHectares: 10}},
	})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	n, err := db.ImportStatistics(ctx, corrected)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row imported, got %d", n)
	}

	got, err := db.LoadStatistics(ctx)
	if err != nil {
		t.Fatalf("LoadStatistics failed: %v", err)
	}
	if _, err := got.Record(2010, 13); !errors.Is(err, models.ErrDataNotFound) {
		t.Errorf("expected stale category 13 to be gone, got %v", err)
	}
	if years := got.Years(); len(years) != 1 || years[0] != 2010 {
		t.Errorf("expected only 2010 after re-import, got %v", years)
	}

	agg := metrics.NewAggregator(got, nil, 2010)
	total, err := agg.TotalLandCover(2010)
	if err != nil {
		t.Fatalf("TotalLandCover failed: %v", err)
	}
	if total != 100 {
		t.Errorf("expected total 100 from the corrected file, got %v", total)
	}
}

func TestSQLiteDB_ImportPopulationReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if _, err := db.ImportPopulation(ctx, stats.NewPopulationTable(map[int]float64{2010: 1000, 2015: 2500})); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if _, err := db.ImportPopulation(ctx, stats.NewPopulationTable(map[int]float64{2010: 1200})); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	p, err := db.LoadPopulation(ctx)
	if err != nil {
		t.Fatalf("LoadPopulation failed: %v", err)
	}
	if p.ForYear(2010) != 1200 {
		t.Errorf("expected 1200, got %v", p.ForYear(2010))
	}
	if p.ForYear(2015) != 0 {
		t.Errorf("expected stale 2015 to be gone, got %v", p.ForYear(2015))
	}
}

func TestSQLiteDB_Population(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	n, err := db.ImportPopulation(ctx, stats.NewPopulationTable(map[int]float64{2010: 1000, 2015: 2500}))
	if err != nil {
		t.Fatalf("ImportPopulation failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}

	p, err := db.LoadPopulation(ctx)
	if err != nil {
		t.Fatalf("LoadPopulation failed: %v", err)
	}
	if p.ForYear(2015) != 2500 {
		t.Errorf("expected 2500, got %v", p.ForYear(2015))
	}
	if p.ForYear(2012) != 0 {
		t.Errorf("expected 0 for missing year, got %v", p.ForYear(2012))
	}
}

func TestSQLiteDB_EmptyLoad(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	tbl, err := db.LoadStatistics(context.Background())
	if err != nil {
		t.Fatalf("LoadStatistics failed: %v", err)
	}
	if len(tbl.Years()) != 0 {
		t.Errorf("expected no years, got %v", tbl.Years())
	}
}

func TestNewSQLiteDB_UnopenablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "landcover.db")
	db, err := NewSQLiteDB(path)
	if err == nil {
		db.Close()
		t.Fatal("expected error for a path in a missing directory")
	}
	if db != nil {
		t.Errorf("expected nil db on error, got %v", db)
	}
}
