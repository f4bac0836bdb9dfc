package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-pivot-table/internal/api"
	"go-pivot-table/internal/api/handler"
	"go-pivot-table/internal/metrics"
	"go-pivot-table/internal/pipeline"
	"go-pivot-table/internal/pivot"
	"go-pivot-table/internal/store"
	"go-pivot-table/pkg/router"
	"go-pivot-table/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pivot REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		// Init DB
		if err := store.InitDB(cfg.DBPath); err != nil {
			return err
		}
		defer store.Close()

		reg, err := metrics.New()
		if err != nil {
			return err
		}
		p, err := newPipeline(reg)
		if err != nil {
			return err
		}
		output := utils.NewOutputManager(cfg.ExportDir)
		if err := output.EnsureOutputDirExists(); err != nil {
			return fmt.Errorf("export dir: %w", err)
		}
		p.Output = output

		h := handler.NewPivotHandler(p)
		defer h.Wait()

		// Create router and register API routes
		r := router.New()
		api.RegisterRoutes(r, h, reg)

		return r.Start(cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config addr)")
}

// newPipeline builds a pipeline with its own memo cache sized from config
func newPipeline(reg *metrics.Registry) (*pipeline.Pipeline, error) {
	cache, err := pivot.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	p := pipeline.New(pivot.NewEngine(cache), reg, nil)
	p.Workers = cfg.Workers
	p.Timeout = cfg.JobTimeout
	return p, nil
}
