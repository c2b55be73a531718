package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-landcover-timeline/internal/charts"
	"github.com/mr1hm/go-landcover-timeline/internal/layers"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/timeline"
)

type Handler struct {
	controller *timeline.Controller
	aggregator *metrics.Aggregator
	resolver   *layers.Resolver
	years      models.YearRange
}

func NewHandler(controller *timeline.Controller, aggregator *metrics.Aggregator, resolver *layers.Resolver, years models.YearRange) *Handler {
	return &Handler{
		controller: controller,
		aggregator: aggregator,
		resolver:   resolver,
		years:      years,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/timeline", h.getTimeline)
	api.PUT("/timeline/index", h.setIndex)
	api.GET("/timeline/unit", h.getUnit)
	api.GET("/metrics/:year", h.getMetrics)
	api.GET("/layers/:mode/:year", h.getLayers)
	api.GET("/charts/urban/:year", h.getUrbanCharts)
	api.GET("/charts/burned", h.getBurnedChart)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"state":  h.controller.State(),
	})
}

func (h *Handler) getTimeline(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.Snapshot(h.aggregator))
}

type setIndexRequest struct {
	Index *int `json:"index" binding:"required"`
}

// setIndex moves the scrubber. Out-of-range values are clamped, not rejected.
func (h *Handler) setIndex(c *gin.Context) {
	var req setIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"index\": <int>}"})
		return
	}
	h.controller.SetSelectedIndex(*req.Index)
	c.JSON(http.StatusOK, h.controller.Snapshot(h.aggregator))
}

func (h *Handler) getUnit(c *gin.Context) {
	if h.controller.Loading() {
		c.JSON(http.StatusAccepted, gin.H{"status": "loading"})
		return
	}
	unit, ok := h.controller.CurrentUnit()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no content loaded for year",
			"year":  h.controller.CurrentYear(),
		})
		return
	}
	c.Header("X-Layers-Year", strconv.Itoa(unit.Year))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(unit.Content))
}

func (h *Handler) getMetrics(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	summary, err := h.aggregator.Summary(year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getLayers(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	mode := layers.ParseViewMode(c.Param("mode"))
	set, err := h.resolver.LayersFor(mode, year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":   mode,
		"year":   year,
		"layers": set,
	})
}

func (h *Handler) getUrbanCharts(c *gin.Context) {
	year, ok := yearParam(c)
	if !ok {
		return
	}
	burned, err := charts.UrbanBurnedArea(h.aggregator, year)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"urban_burned_area":   burned,
		"affected_population": charts.AffectedPopulation(h.aggregator, year),
	})
}

func (h *Handler) getBurnedChart(c *gin.Context) {
	c.JSON(http.StatusOK, charts.BurnedAreaByYear(h.aggregator, h.years))
}

func yearParam(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
		return 0, false
	}
	return year, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrDataNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrDivisionByZero):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, layers.ErrUnknownViewMode):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
