// Package templates holds the dashboard page shell. Sections inside it are patch targets
// that the SSE handlers fill in after the page loads.
package templates

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

// Section is a titled slot on the page, identified by the element id it is patched into.
type Section struct {
	ID    string
	Title string
}

type ExportLink struct {
	Label string
	Href  string
}

type Page struct {
	Title     string
	Subtitle  string
	StartDate string
	EndDate   string
	Charts    []Section
	Tables    []Section
	Exports   []ExportLink
}

type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) raw(parts ...string) {
	for _, s := range parts {
		if p.err != nil {
			return
		}
		_, p.err = io.WriteString(p.w, s)
	}
}

func esc(s string) string {
	return templ.EscapeString(s)
}

// signals is the initial datastar store for the sidebar filter.
func signals(p Page) string {
	var b strings.Builder
	b.WriteString(`{startDate: '`)
	b.WriteString(p.StartDate)
	b.WriteString(`', endDate: '`)
	b.WriteString(p.EndDate)
	b.WriteString(`', recordCount: 0, generatedAt: ''}`)
	return b.String()
}

func Dashboard(p Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}

		pw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(p.Title), `</title>`,
			`<script type="module" src="`, datastarScript, `"></script>`,
			`<style>`, stylesheet, `</style></head>`)

		pw.raw(`<body data-signals="`, esc(signals(p)), `" data-on-load="@get('/sse/refresh-all')">`)

		pw.raw(`<aside class="sidebar"><h2>Filter</h2>`,
			`<label for="start-date">Start date</label>`,
			`<input id="start-date" type="date" data-bind-start-date value="`, esc(p.StartDate), `">`,
			`<label for="end-date">End date</label>`,
			`<input id="end-date" type="date" data-bind-end-date value="`, esc(p.EndDate), `">`,
			`<button data-on-click="@get('/sse/refresh-all')">Apply</button>`,
			`<div id="filter-error"></div>`,
			`<p class="summary"><span data-text="$recordCount"></span> records</p>`,
			`<h2>Export</h2><ul class="exports">`)
		for _, e := range p.Exports {
			pw.raw(`<li><a data-attr-href="'`, esc(e.Href), `?start=' + $startDate + '&end=' + $endDate" href="`, esc(e.Href), `">`, esc(e.Label), `</a></li>`)
		}
		pw.raw(`</ul></aside>`)

		pw.raw(`<main><header><h1>`, esc(p.Title), `</h1><p class="subtitle">`, esc(p.Subtitle), `</p></header>`,
			`<div id="kpis" class="kpi-grid"></div>`,
			`<section class="charts">`)
		for _, s := range p.Charts {
			pw.raw(`<article class="panel"><h3>`, esc(s.Title), `</h3><div id="`, esc(s.ID), `" class="chart"></div></article>`)
		}
		pw.raw(`</section><section class="tables">`)
		for _, s := range p.Tables {
			pw.raw(`<article class="panel"><h3>`, esc(s.Title), `</h3><div id="`, esc(s.ID), `"></div></article>`)
		}
		pw.raw(`</section></main></body></html>`)

		return pw.err
	})
}

const stylesheet = `body{margin:0;display:flex;font-family:system-ui,sans-serif;background:#f5f6f8;color:#222}
.sidebar{width:240px;padding:1rem;background:#fff;border-right:1px solid #ddd;min-height:100vh}
.sidebar label,.sidebar input,.sidebar button{display:block;width:100%;margin-bottom:.5rem}
.filter-error{color:#b00020}
main{flex:1;padding:1rem 2rem}
.subtitle{color:#666}
.kpi-grid{display:grid;grid-template-columns:repeat(3,1fr);gap:1rem}
.kpi-card{background:#fff;padding:1rem;border-radius:6px;display:flex;flex-direction:column}
.kpi-label{font-size:.85rem;color:#666}
.kpi-value{font-size:1.4rem;font-weight:600}
.charts,.tables{display:grid;grid-template-columns:repeat(auto-fill,minmax(660px,1fr));gap:1rem;margin-top:1rem}
.panel{background:#fff;padding:1rem;border-radius:6px;overflow-x:auto}
.modern-table{border-collapse:collapse;width:100%}
.modern-table th,.modern-table td{padding:.3rem .6rem;border-bottom:1px solid #eee;text-align:right}
.modern-table th:first-child,.modern-table td:first-child{text-align:left}
.empty{color:#888;text-align:center}
.heat-0{background:#fff}.heat-1{background:#deebf7}.heat-2{background:#c6dbef}
.heat-3{background:#9ecae1}.heat-4{background:#6baed6}.heat-5{background:#3182bd;color:#fff}`
