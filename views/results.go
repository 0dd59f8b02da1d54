package views

import (
	"context"
	"fmt"
	"io"

	"neuroscreen/internal/models"

	"github.com/a-h/templ"
)

// Chart is one ECharts instance on a page. Options is the JSON produced by
// go-echarts; it must come from encoding/json so "<" is already escaped.
type Chart struct {
	ID      string
	Options []byte
}

// ResultsPage is everything the results page shows.
type ResultsPage struct {
	Outcome   models.ScoringOutcome
	Headlines []string
	Charts    []Chart
	ReportURL string
	Nonce     string
}

// Results renders the scored outcome, the headline measurements and the
// session charts.
func Results(page ResultsPage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<h2>Cognitive Health Report</h2><div class="score">`)
		p.text(fmt.Sprintf("Health Index %d / 100", page.Outcome.HealthScore))
		p.raw(`</div><p>`)
		p.text(page.Outcome.Summary)
		p.raw(`</p>`)

		p.raw(`<h3>Key findings</h3><ul>`)
		if len(page.Outcome.RiskIndicators) == 0 {
			p.raw(`<li class="ok">No significant risk indicators detected.</li>`)
		}
		for _, r := range page.Outcome.RiskIndicators {
			p.raw(`<li class="risk">`)
			p.text(r)
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)

		list(p, "Recommendations", page.Outcome.Recommendations)
		list(p, "Measurements", page.Headlines)

		for _, chart := range page.Charts {
			p.raw(`<div class="chart" id="`)
			p.text(chart.ID)
			p.raw(`"></div><script type="application/json" id="`)
			p.text(chart.ID)
			p.raw(`-options">`)
			p.raw(string(chart.Options))
			p.raw(`</script>`)
		}

		if page.ReportURL != "" {
			p.raw(`<p><a href="`)
			p.text(page.ReportURL)
			p.raw(`">Download PDF report</a></p>`)
		}
		p.raw(`<p class="muted">This is a screening tool, not a diagnosis.</p>`)

		if len(page.Charts) > 0 {
			p.raw(`<script nonce="`)
			p.text(page.Nonce)
			p.raw(`" src="` + EChartsScript + `"></script><script nonce="`)
			p.text(page.Nonce)
			p.raw(`">`)
			p.raw(chartBoot)
			p.raw(`</script>`)
		}
		return p.err
	})
}

func list(p *writer, heading string, items []string) {
	p.raw(`<h3>`)
	p.text(heading)
	p.raw(`</h3><ul>`)
	for _, item := range items {
		p.raw(`<li>`)
		p.text(item)
		p.raw(`</li>`)
	}
	p.raw(`</ul>`)
}

const chartBoot = `document.querySelectorAll(".chart").forEach(function (el) {
  var options = JSON.parse(document.getElementById(el.id + "-options").textContent);
  echarts.init(el).setOption(options);
});`
