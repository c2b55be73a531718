package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/mr1hm/go-landcover-timeline/internal/config"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
)

const statsFixture = `{
	"2010": {
		"1": {"name": "Evergreen Needleleaf Forest", "total_land_cover_hectares": 100, "burned_hectars": 10},
		"5": {"name": "Mixed Forest", "total_land_cover_hectares": 50, "burned_hectars": 5},
		"13": {"name": "Urban and Built-up", "total_land_cover_hectares": 20, "burned_hectars": 1}
	},
	"2015": {
		"1": {"name": "Evergreen Needleleaf Forest", "total_land_cover_hectares": 90, "burned_hectars": 20},
		"5": {"name": "Mixed Forest", "total_land_cover_hectares": 45, "burned_hectars": 10},
		"13": {"name": "Urban and Built-up", "total_land_cover_hectares": 20, "burned_hectars": 3}
	}
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	statsPath := filepath.Join(dir, "stats.json")
	popPath := filepath.Join(dir, "population.json")
	if err := os.WriteFile(statsPath, []byte(statsFixture), 0o644); err != nil {
		t.Fatalf("failed to write stats: %v", err)
	}
	if err := os.WriteFile(popPath, []byte(`{"2015": 2500000}`), 0o644); err != nil {
		t.Fatalf("failed to write population: %v", err)
	}
	return &config.Config{
		Timeline: config.TimelineConfig{FirstYear: 2010, LastYear: 2015, BaselineYear: 2010, ViewMode: "landcover-burn"},
		Data:     config.DataConfig{StatsPath: statsPath, PopulationPath: popPath},
		DB:       config.DatabaseConfig{Path: filepath.Join(dir, "landcover.db")},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary_JSON(t *testing.T) {
	out, err := run(t, testConfig(t), "summary", "-o", "json")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}

	var summaries []metrics.Summary
	if err := json.Unmarshal([]byte(out), &summaries); err != nil {
		t.Fatalf("failed to parse output: %v\n%s", err, out)
	}
	// 2011-2014 have no statistics and are skipped
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	s := summaries[1]
	if s.Year != 2015 || s.PercentDeforestation != 10 {
		t.Errorf("unexpected 2015 summary: %+v", s)
	}
	if s.Formatted.PopulationAffected != "2.5M" {
		t.Errorf("expected 2.5M, got %s", s.Formatted.PopulationAffected)
	}
	if s.UrbanBurnedArea != 3 {
		t.Errorf("expected urban burned 3, got %v", s.UrbanBurnedArea)
	}
}

func TestSummary_TableAndYAML(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "summary")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !strings.HasPrefix(out, "YEAR") || !strings.Contains(out, "2015") {
		t.Errorf("unexpected table output:\n%s", out)
	}

	out, err = run(t, cfg, "summary", "-o", "yaml")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if !strings.Contains(out, "percent_deforestation: 10") {
		t.Errorf("unexpected yaml output:\n%s", out)
	}
}

func TestSummary_Errors(t *testing.T) {
	cfg := testConfig(t)

	if _, err := run(t, cfg, "summary", "-o", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := run(t, cfg, "summary", "--first", "2016", "--last", "2012"); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestSummary_BaselineValidation(t *testing.T) {
	cfg := testConfig(t)

	_, err := run(t, cfg, "summary", "--baseline", "2005")
	if err == nil || !strings.Contains(err.Error(), "outside 2010..2015") {
		t.Errorf("expected out-of-range baseline error, got %v", err)
	}

	_, err = run(t, cfg, "summary", "--baseline", "2012")
	if !errors.Is(err, models.ErrDataNotFound) || !strings.Contains(err.Error(), "baseline year 2012") {
		t.Errorf("expected missing baseline data error, got %v", err)
	}
}

func TestLayers(t *testing.T) {
	out, err := run(t, testConfig(t), "layers", "--first", "2012", "--last", "2013", "--mode", "urban")
	if err != nil {
		t.Fatalf("layers failed: %v", err)
	}
	want := "2012\turban_2012,burn_2012\n2013\turban_2013,burn_2013\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	if _, err := run(t, testConfig(t), "layers", "--mode", "heatmap"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestImport(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "import")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "2 years of statistics, 1 years of population") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(cfg.DB.Path); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}
