// Package views renders the HTML pages of the assessment server as templ
// components.
package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// EChartsScript is the ECharts build the chart pages load, served from the
// go-echarts asset host.
const EChartsScript = "https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"

// writer accumulates the first error so components can emit markup without
// checking every write.
type writer struct {
	w   io.Writer
	err error
}

func (p *writer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

// text writes s HTML-escaped; it is safe in element bodies and quoted
// attributes.
func (p *writer) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *writer) render(ctx context.Context, c templ.Component) {
	if p.err != nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

const stylesheet = `
body{margin:0;font-family:system-ui,sans-serif;color:#0f172a;background:#f8fafc}
header{background:#0f172a;color:#fff;padding:16px 32px}
header h1{margin:0;font-size:20px}
main{max-width:880px;margin:24px auto;padding:0 16px}
.score{display:inline-block;border:2px solid #0ea5e9;border-radius:8px;padding:12px 24px;font-size:28px;font-weight:700;color:#0ea5e9}
.risk{color:#b45309}
.ok{color:#15803d}
.muted{color:#64748b;font-size:13px}
.chart{height:320px;margin:24px 0;background:#fff;border:1px solid #cbd5e1;border-radius:8px}
`

// Layout is the page shell. Children passed with templ.WithChildren render
// inside <main>; nonce must match the response's Content-Security-Policy.
func Layout(title, nonce string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &writer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`)
		p.text(title)
		p.raw(` | NeuroScreen</title><style nonce="`)
		p.text(nonce)
		p.raw(`">`)
		p.raw(stylesheet)
		p.raw(`</style></head><body><header><h1>NeuroScreen</h1></header><main>`)
		p.render(ctx, templ.GetChildren(ctx))
		p.raw(`</main></body></html>`)
		return p.err
	})
}
