package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mr1hm/go-landcover-timeline/internal/config"
	"github.com/mr1hm/go-landcover-timeline/internal/layers"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/repository"
	"github.com/mr1hm/go-landcover-timeline/internal/stats"
)

type options struct {
	statsPath      string
	populationPath string
	dbPath         string
	baseline       int
	first          int
	last           int
	output         string
	mode           string
}

func (o *options) years() (models.YearRange, error) {
	if o.first > o.last {
		return models.YearRange{}, fmt.Errorf("--first %d is after --last %d", o.first, o.last)
	}
	return models.YearRange{First: o.first, Last: o.last}, nil
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "landcover-report",
		Long:         "Print per-year land cover metrics computed from the statistics dataset",
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.statsPath, "stats", cfg.Data.StatsPath, "land cover statistics file (JSON or YAML)")
	f.StringVar(&opts.populationPath, "population", cfg.Data.PopulationPath, "affected population file (JSON or YAML)")
	f.IntVar(&opts.first, "first", cfg.Timeline.FirstYear, "first year of the range")
	f.IntVar(&opts.last, "last", cfg.Timeline.LastYear, "last year of the range")

	summary := newSummaryCmd(opts)
	summary.Flags().IntVar(&opts.baseline, "baseline", cfg.Timeline.BaselineYear, "baseline year for percentage metrics")
	summary.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table, json or yaml")

	layersCmd := newLayersCmd(opts)
	layersCmd.Flags().StringVar(&opts.mode, "mode", cfg.Timeline.ViewMode, "view mode")

	importCmd := newImportCmd(opts)
	importCmd.Flags().StringVar(&opts.dbPath, "db", cfg.DB.Path, "SQLite database path")

	root.AddCommand(summary, layersCmd, importCmd)
	return root
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print metrics for every year in the range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			years, err := opts.years()
			if err != nil {
				return err
			}
			if !years.Contains(opts.baseline) {
				return fmt.Errorf("baseline year %d outside %d..%d", opts.baseline, years.First, years.Last)
			}
			tbl, err := stats.LoadTableFile(opts.statsPath)
			if err != nil {
				return err
			}
			if !tbl.HasYear(opts.baseline) {
				return fmt.Errorf("baseline year %d: %w in %s", opts.baseline, models.ErrDataNotFound, opts.statsPath)
			}
			pop, err := loadPopulation(opts.populationPath)
			if err != nil {
				return err
			}

			agg := metrics.NewAggregator(tbl, pop, opts.baseline)
			var summaries []metrics.Summary
			for _, y := range years.Years() {
				s, err := agg.Summary(y)
				if err != nil {
					slog.Warn("skipping year", "year", y, "error", err)
					continue
				}
				summaries = append(summaries, s)
			}
			if len(summaries) == 0 {
				return fmt.Errorf("no metrics for %d-%d: %w", years.First, years.Last, models.ErrDataNotFound)
			}
			return writeSummaries(cmd.OutOrStdout(), opts.output, summaries)
		},
	}
}

func newLayersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "Print the layer set requested for each year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			years, err := opts.years()
			if err != nil {
				return err
			}
			resolver := layers.NewResolver()
			mode := layers.ParseViewMode(opts.mode)
			out := cmd.OutOrStdout()
			for _, y := range years.Years() {
				set, err := resolver.LayersFor(mode, y)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%s\n", y, strings.Join(set, ","))
			}
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import the dataset files into the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := repository.NewSQLiteDB(opts.dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			tbl, pop, err := repository.Bootstrap(cmd.Context(), db, opts.statsPath, opts.populationPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d years of statistics, %d years of population\n",
				opts.dbPath, len(tbl.Years()), len(pop.Years()))
			return nil
		},
	}
}

func loadPopulation(path string) (*stats.PopulationTable, error) {
	if path == "" {
		return stats.NewPopulationTable(nil), nil
	}
	pop, err := stats.LoadPopulationFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("population file not found, population metrics will be zero", "path", path)
		return stats.NewPopulationTable(nil), nil
	}
	return pop, err
}

func writeSummaries(w io.Writer, format string, summaries []metrics.Summary) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "YEAR\tDEGRADATION %\tDEFORESTATION %\tBURNED (ha)\tURBAN BURNED (ha)\tPOPULATION")
		for _, s := range summaries {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				s.Year,
				s.Formatted.PercentDegradation,
				s.Formatted.PercentDeforestation,
				s.Formatted.TotalBurnedArea,
				metrics.FormatMagnitude(s.UrbanBurnedArea),
				s.Formatted.PopulationAffected,
			)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
