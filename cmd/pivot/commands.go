package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"go-pivot-table/internal/config"
	"go-pivot-table/internal/model"
	"go-pivot-table/internal/pipeline"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/pkg/utils"
)

var runCmd = &cobra.Command{
	Use:   "run <spec-file>",
	Short: "Run a report spec and print the pivot rows",
	Long: `Run loads the spec's sources and inline rows, applies its transformations
and filters, pivots the rows and prints them in --format. With --out the
rows are written to that file instead.

Relative source paths are resolved against the spec file's directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			spec.Export = &model.Export{File: out}
			if cmd.Flags().Changed("format") {
				spec.Export.Format = format
			}
		}

		p, err := newPipeline(nil)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		outcome, err := p.Run(cmd.Context(), uuid.NewString(), spec)
		if err != nil {
			return err
		}
		if spec.Export != nil {
			fmt.Fprintf(w, "%d rows written to %s\n", outcome.Export.RecordCount, outcome.Export.Path)
			return nil
		}

		b, _, err := pipeline.Encode(format, outcome.Result)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <spec-file>...",
	Short: "Run several report specs concurrently over one memo cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(nil)
		if err != nil {
			return err
		}

		type line struct {
			name    string
			outcome *pipeline.Outcome
			err     error
		}
		lines := make([]line, len(args))

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Workers)
		for i, path := range args {
			g.Go(func() error {
				spec, err := loadSpec(path)
				if err != nil {
					lines[i] = line{name: path, err: err}
					return nil
				}
				outcome, err := p.Run(ctx, uuid.NewString(), spec)
				lines[i] = line{name: spec.Name, outcome: outcome, err: err}
				return nil
			})
		}
		g.Wait()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REPORT\tSTATUS\tROWS\tCACHE HIT\tEXPORT")
		failed := 0
		for _, l := range lines {
			if l.err != nil {
				failed++
				fmt.Fprintf(tw, "%s\t%s\t-\t-\t%v\n", l.name, model.StatusFailed, l.err)
				continue
			}
			export := "-"
			if l.outcome.Export != nil {
				export = l.outcome.Export.Path
			}
			m := l.outcome.Metrics
			fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n", l.name, model.StatusCompleted, m.RowsProduced, m.CacheHit, export)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d reports failed", failed, len(args))
		}
		return nil
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields <data-file>",
	Short: "List the fields of a CSV or JSON data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceType := utils.FileType(args[0])
		if sourceType == "" {
			return fmt.Errorf("cannot infer source type of %s: want .csv or .json", args[0])
		}
		sample, _ := cmd.Flags().GetInt("sample")

		rows, err := pipeline.NewLoader(nil).LoadSource(cmd.Context(), model.Source{Type: sourceType, URL: args[0]})
		if err != nil {
			return err
		}
		if sample > 0 && len(rows) > sample {
			rows = rows[:sample]
		}
		return writeFields(cmd.OutOrStdout(), pivot.DiscoverFields(rows))
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash <spec-file>",
	Short: "Print the config hash and transformation mode of a report spec",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := config.LoadReportSpec(args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"hash": pivot.ConfigHash(spec.Pivot),
			"mode": string(pivot.ModeOf(spec.Pivot)),
		})
	},
}

func init() {
	runCmd.Flags().StringP("out", "o", "", "Write rows to this file instead of stdout")
	fieldsCmd.Flags().Int("sample", 100, "Rows inspected for field discovery (0 for all)")
}

// loadSpec reads a spec file and resolves its relative file sources
// against the file's directory.
func loadSpec(path string) (model.ReportSpec, error) {
	spec, err := config.LoadReportSpec(path)
	if err != nil {
		return spec, err
	}
	dir := filepath.Dir(path)
	for i, src := range spec.Sources {
		if src.Type == "sql" || src.URL == "" || filepath.IsAbs(src.URL) || strings.Contains(src.URL, "://") {
			continue
		}
		spec.Sources[i].URL = filepath.Join(dir, src.URL)
	}
	return spec, nil
}

func writeFields(w io.Writer, fields []pivot.Field) error {
	if format != pipeline.FormatCSV {
		return writeJSON(w, fields)
	}
	cw := csv.NewWriter(w)
	cw.Write([]string{"name", "label", "type"})
	for _, f := range fields {
		cw.Write([]string{f.Name, f.Label, f.Type})
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
