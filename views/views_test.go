package views

import (
	"bytes"
	"context"
	"testing"

	"neuroscreen/internal/models"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, page ResultsPage) string {
	t.Helper()
	var buf bytes.Buffer
	ctx := templ.WithChildren(context.Background(), Results(page))
	require.NoError(t, Layout("Results", page.Nonce).Render(ctx, &buf))
	return buf.String()
}

func TestResultsPage(t *testing.T) {
	html := render(t, ResultsPage{
		Outcome: models.ScoringOutcome{
			HealthScore:     72,
			Summary:         "Results suggest mild slowing.",
			RiskIndicators:  []string{"Delayed motor response"},
			Recommendations: []string{"Maintain regular sleep"},
		},
		Headlines: []string{"Motor Reaction Avg: 650ms"},
		Charts:    []Chart{{ID: "chart-samples", Options: []byte(`{"series":[]}`)}},
		ReportURL: "/api/session/report.pdf",
		Nonce:     "abc123",
	})

	assert.Contains(t, html, "<title>Results | NeuroScreen</title>")
	assert.Contains(t, html, "Health Index 72 / 100")
	assert.Contains(t, html, `<li class="risk">Delayed motor response</li>`)
	assert.Contains(t, html, "<li>Motor Reaction Avg: 650ms</li>")
	assert.Contains(t, html, `<script type="application/json" id="chart-samples-options">{"series":[]}</script>`)
	assert.Contains(t, html, `<script nonce="abc123" src="`+EChartsScript+`">`)
	assert.Contains(t, html, `<style nonce="abc123">`)
	assert.Contains(t, html, `href="/api/session/report.pdf"`)
	assert.Less(t, bytes.Index([]byte(html), []byte("<main>")), bytes.Index([]byte(html), []byte("Health Index")))
}

func TestResultsPageEscapesText(t *testing.T) {
	html := render(t, ResultsPage{
		Outcome: models.ScoringOutcome{Summary: `<script>alert("x")</script>`},
		Nonce:   `"><script>`,
	})
	assert.NotContains(t, html, `<script>alert`)
	assert.Contains(t, html, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	assert.NotContains(t, html, `nonce=""><script>`)
	assert.Contains(t, html, "No significant risk indicators detected.")
	// Without charts no script is loaded at all.
	assert.NotContains(t, html, EChartsScript)
}
