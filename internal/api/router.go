package api

import (
	"go-pivot-table/internal/api/handler"
	"go-pivot-table/internal/metrics"
	"go-pivot-table/pkg/router"

	_ "go-pivot-table/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router, h *handler.PivotHandler, reg *metrics.Registry) {
	r.POST("/api/v1/pivots", h.CreatePivot)
	r.GET("/api/v1/pivots", h.ListPivots)
	// More specific routes first
	r.GET("/api/v1/pivots/*/export", h.ExportPivot)
	r.GET("/api/v1/pivots/*/errors", h.GetPivotErrors)
	r.POST("/api/v1/pivots/*/rerun", h.RerunPivot)
	// Generic report routes last
	r.GET("/api/v1/pivots/*", h.GetPivot)
	r.DELETE("/api/v1/pivots/*", h.DeletePivot)

	r.POST("/api/v1/transform", h.TransformRows)
	r.POST("/api/v1/fields", h.DiscoverFields)
	r.POST("/api/v1/hash", h.HashConfig)

	r.Mount("/metrics", reg.Handler())
	r.Mount("/swagger/", httpSwagger.WrapHandler)
}
