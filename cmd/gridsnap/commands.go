package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/gridsnap/internal/fsutil"
	"github.com/banshee-data/gridsnap/internal/layout/grid"
	"github.com/banshee-data/gridsnap/internal/layout/docio"
	"github.com/banshee-data/gridsnap/internal/layout/pipeline"
	"github.com/banshee-data/gridsnap/internal/layout/render"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
	"github.com/banshee-data/gridsnap/internal/layout/storage/sqlite"
	"github.com/banshee-data/gridsnap/internal/units"
)

// defaultOutput derives deck.snapped.json from deck.json.
func defaultOutput(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".snapped" + ext
}

func (a *app) snapCmd() *cobra.Command {
	var (
		out, dbPath, plotDir, reportPath string
		dryRun                           bool
	)
	cmd := &cobra.Command{
		Use:   "snap <deck.json>",
		Short: "Snap every shape and write the updated deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			input := args[0]

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pipeline.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			doc, err := docio.NewReader(nil).Read(input)
			if err != nil {
				return err
			}

			writer := docio.NewWriter(nil)
			var run *sqlite.RunRecorder
			if dbPath != "" {
				store, err := sqlite.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.MigrateUp(); err != nil {
					return err
				}
				if run, err = store.BeginRun(ctx, input, cfg.JSON()); err != nil {
					return err
				}
			}

			var sink snapping.CommitSink = writer
			if run != nil {
				sink = snapping.Tee(writer, run)
			}
			res, err := pipeline.Run(ctx, doc, opts, sink)
			if err != nil {
				return err
			}
			if run != nil && len(res.Templates) > 0 {
				if err := run.SaveTemplates(ctx, res.Templates); err != nil {
					return err
				}
			}

			if plotDir != "" {
				if _, err := render.SaveSlides(nil, plotDir, res, doc.SlideWidth, doc.SlideHeight); err != nil {
					return err
				}
			}
			if reportPath != "" {
				if err := writeReport(reportPath, res); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "objects=%d moved=%d unchanged=%d templates=%d\n",
				res.Summary.Objects, res.Summary.Moved, res.Summary.Unchanged, len(res.Templates))
			if run != nil {
				fmt.Fprintf(w, "run=%s\n", run.ID())
			}
			if dryRun {
				return nil
			}
			if err := doc.Apply(res.Objects); err != nil {
				return err
			}
			if out == "" {
				out = defaultOutput(input)
			}
			if err := writer.Write(out, doc); err != nil {
				return err
			}
			fmt.Fprintf(w, "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output deck (default <deck>.snapped.json)")
	cmd.Flags().StringVar(&dbPath, "db", "", "record the run in this sqlite database")
	cmd.Flags().StringVar(&plotDir, "plots", "", "write one PNG preview per slide into this directory")
	cmd.Flags().StringVar(&reportPath, "report", "", "write an HTML displacement report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and report without writing the deck")
	return cmd
}

func writeReport(path string, res *pipeline.Result) error {
	fs := fsutil.OSFileSystem{}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	err = render.DisplacementReport(f, "gridsnap displacement", res.Outcomes)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates <deck.json>",
		Short: "Group repeated shapes into templates without snapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pipeline.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			doc, err := docio.NewReader(nil).Read(args[0])
			if err != nil {
				return err
			}
			objs, err := doc.Objects(opts.Anchors)
			if err != nil {
				return err
			}
			templates, err := pipeline.RecognizeTemplates(cmd.Context(), objs, opts)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEMPLATE\tCATEGORY\tCOUNT\tREPRESENTATIVE\tINSTANCES")
			for _, t := range templates {
				ids := make([]string, 0, t.Len())
				for _, o := range t.Instances() {
					ids = append(ids, o.FullID())
				}
				r := t.Representative().Bounds()
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d,%d %dx%d\t%s\n",
					t.ID(), t.Category(), t.Len(), r.Left, r.Top, r.Width, r.Height, strings.Join(ids, " "))
			}
			return tw.Flush()
		},
	}
}

func (a *app) gridCmd() *cobra.Command {
	var (
		slide int
		unit  string
	)
	cmd := &cobra.Command{
		Use:   "grid <deck.json>",
		Short: "Print the grids each slide is snapped to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !units.IsValid(unit) {
				return fmt.Errorf("invalid unit %q (valid: %s)", unit, units.GetValidUnitsString())
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			opts, err := pipeline.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			doc, err := docio.NewReader(nil).Read(args[0])
			if err != nil {
				return err
			}
			objs, err := doc.Objects(opts.Anchors)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range doc.Slides {
				if slide >= 0 && s.Index != slide {
					continue
				}
				grids, err := pipeline.BuildGrids(doc.SlideWidth, doc.SlideHeight, docio.ObjectsBySlide(objs)[s.Index], opts)
				if err != nil {
					return fmt.Errorf("slide %d: %w", s.Index, err)
				}
				printGrid(w, s.Index, "basic", grids.Basic, unit)
				if grids.Cluster != nil {
					printGrid(w, s.Index, "cluster", grids.Cluster, unit)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&slide, "slide", -1, "only this slide index")
	cmd.Flags().StringVar(&unit, "unit", units.EMU, "print lines in this unit ("+units.GetValidUnitsString()+")")
	return cmd
}

// printGrid prints g as-is in EMU, otherwise its lines converted to unit.
func printGrid(w io.Writer, slide int, name string, g *grid.Grid, unit string) {
	if unit == units.EMU {
		fmt.Fprintf(w, "slide %d %s: %s\n", slide, name, g)
		return
	}
	fmt.Fprintf(w, "slide %d %s (%s): x=%s y=%s\n", slide, name, unit,
		formatLengths(units.ConvertLengths(g.XLines(), unit)),
		formatLengths(units.ConvertLengths(g.YLines(), unit)))
}

func formatLengths(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (a *app) dbCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the run database",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "gridsnap.db", "sqlite database path")

	var down bool
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or with --down, roll back one) schema migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			if down {
				err = store.MigrateDown()
			} else {
				err = store.MigrateUp()
			}
			if err != nil {
				return err
			}
			v, dirty, err := store.MigrateVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		},
	}
	migrateCmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			v, dirty, err := store.MigrateVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tCOMMITS\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.ID, r.StartedAt.Format("2006-01-02T15:04:05Z07:00"), r.Commits, r.SourcePath)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(migrateCmd, versionCmd, runsCmd)
	return cmd
}
