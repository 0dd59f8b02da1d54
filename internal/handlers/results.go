package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"neuroscreen/internal/models"
	"neuroscreen/internal/report"
	"neuroscreen/internal/repository"
	"neuroscreen/internal/scoring"
	"neuroscreen/internal/session"
	"neuroscreen/views"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type ResultsHandler struct {
	log   *zap.Logger
	store *repository.Store
}

func NewResultsHandler(log *zap.Logger, store *repository.Store) *ResultsHandler {
	return &ResultsHandler{log: log, store: store}
}

// Analyze scores the finished session. A scoring failure resets the
// session, matching what the player does.
func (h *ResultsHandler) Analyze(c *gin.Context) {
	id := CurrentSessionID(c)
	var outcome models.ScoringOutcome
	err := h.store.UpdateSession(id, func(sess *session.Session) error {
		var err error
		outcome, err = sess.Analyze(scoring.Analyze)
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("Session analyzed",
		zap.String("sessionID", id.String()),
		zap.Int("healthScore", outcome.HealthScore))
	c.JSON(http.StatusOK, outcome)
}

// ShowChart returns ECharts options for the session. ?kind=samples (the
// default) plots per-target reaction times; ?kind=tasks plots the headline
// metric of each finished task.
func (h *ResultsHandler) ShowChart(c *gin.Context) {
	id := CurrentSessionID(c)

	switch kind := c.DefaultQuery("kind", "samples"); kind {
	case "samples":
		data, err := h.store.GetReactionSamples(id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, generateSamplesChart(data).JSON())
	case "tasks":
		data, err := h.store.GetTaskMetrics(id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, generateTasksChart(data).JSON())
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown chart kind %q", kind)})
	}
}

// ShowResults renders the results page of a scored session.
func (h *ResultsHandler) ShowResults(c *gin.Context) {
	id := CurrentSessionID(c)
	page := views.ResultsPage{
		ReportURL: "/api/session/report.pdf",
		Nonce:     c.GetString(CSPNonceContextKey),
	}
	err := h.store.ViewSession(id, func(sess *session.Session) error {
		if sess.Stage != session.StageResults || sess.Outcome == nil {
			return fmt.Errorf("results at %s: %w", sess.Stage, session.ErrOutOfOrder)
		}
		page.Outcome = *sess.Outcome
		page.Headlines = report.Headlines(sess.Data)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	samples, err := h.store.GetReactionSamples(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	metrics, err := h.store.GetTaskMetrics(id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	for _, chart := range []struct {
		id  string
		bar *charts.Bar
	}{
		{"chart-samples", generateSamplesChart(samples)},
		{"chart-tasks", generateTasksChart(metrics)},
	} {
		options, err := json.Marshal(chart.bar.JSON())
		if err != nil {
			h.log.Error("Failed to encode chart options", zap.String("chart", chart.id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build charts"})
			return
		}
		page.Charts = append(page.Charts, views.Chart{ID: chart.id, Options: options})
	}

	var buf bytes.Buffer
	component := views.Results(page)
	if err := views.Layout("Results", page.Nonce).Render(templ.WithChildren(c.Request.Context(), component), &buf); err != nil {
		h.log.Error("Failed to render results page", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render results"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// DownloadReport renders the PDF for a scored session.
func (h *ResultsHandler) DownloadReport(c *gin.Context) {
	id := CurrentSessionID(c)
	var doc report.Document
	err := h.store.ViewSession(id, func(sess *session.Session) error {
		if sess.Stage != session.StageResults || sess.Outcome == nil {
			return fmt.Errorf("report at %s: %w", sess.Stage, session.ErrOutOfOrder)
		}
		doc = report.Document{
			ReportID: report.NewReportID(),
			Date:     time.Now(),
			Record:   sess.Data.Clone(),
			Outcome:  *sess.Outcome,
		}
		if sess.CompletedAt != nil {
			doc.Date = *sess.CompletedAt
		}
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, doc); err != nil {
		h.log.Error("Failed to render report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render report"})
		return
	}

	h.log.Info("Report generated", zap.String("sessionID", id.String()), zap.String("reportID", doc.ReportID))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(doc.ReportID)))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func generateSamplesChart(data []repository.SampleDataPoint) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Motor Reaction",
			Subtitle: "Reaction time per target (ms)",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	labels := make([]string, 0, len(data))
	items := make([]opts.BarData, 0, len(data))
	for _, point := range data {
		labels = append(labels, strconv.Itoa(point.Target))
		items = append(items, opts.BarData{Value: point.Value})
	}

	bar.SetXAxis(labels).
		AddSeries("Reaction time", items).
		SetSeriesOptions(charts.WithMarkLineNameTypeItemOpts(opts.MarkLineNameTypeItem{Name: "Average", Type: "average"}))
	return bar
}

func generateTasksChart(data []repository.TaskDataPoint) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Task Metrics"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	labels := make([]string, 0, len(data))
	items := make([]opts.BarData, 0, len(data))
	for _, point := range data {
		labels = append(labels, point.Label)
		items = append(items, opts.BarData{Name: string(point.Task), Value: point.Value})
	}
	bar.SetXAxis(labels).AddSeries("Metric", items)
	return bar
}
