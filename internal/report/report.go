package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/wonny/holdwatch/internal/attribution"
	"github.com/wonny/holdwatch/internal/contracts"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	markdownTmpl = template.Must(template.New("report.md.tmpl").Funcs(template.FuncMap{
		"pct":    func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"signed": func(v float64) string { return fmt.Sprintf("%+.2f", v) },
		"cell":   func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
	}).ParseFS(templateFS, "templates/report.md.tmpl"))

	documentTmpl = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/document.html.tmpl"))

	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)
)

type categoryCount struct {
	Category contracts.Category
	Count    int
}

type markdownData struct {
	Date     string
	PrevDate string
	Results  []contracts.AttributionResult
	Summary  attribution.Summary
	Counts   []categoryCount
	Memos    []contracts.Memo
}

// Subject is the one-line alert title for a run; newMemos counts memos
// published since the last run
func Subject(date string, summary attribution.Summary, newMemos int) string {
	subject := fmt.Sprintf("Holdings %s: %d changes", date, summary.Rows)
	if summary.Rows == 0 {
		subject = fmt.Sprintf("Holdings %s: no changes", date)
	}
	switch {
	case newMemos == 1:
		subject += ", 1 new memo"
	case newMemos > 1:
		subject += fmt.Sprintf(", %d new memos", newMemos)
	}
	return subject
}

// Markdown renders the ranked results, followed by any new memos, as a
// markdown report. prevDate is empty on a cold start.
func Markdown(date, prevDate string, results []contracts.AttributionResult, summary attribution.Summary, memos []contracts.Memo) (string, error) {
	data := markdownData{
		Date:     date,
		PrevDate: prevDate,
		Results:  results,
		Summary:  summary,
		Memos:    memos,
	}
	for _, c := range contracts.Categories {
		if n := summary.ByCategory[c]; n > 0 {
			data.Counts = append(data.Counts, categoryCount{Category: c, Count: n})
		}
	}

	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// HTML converts a markdown report into a standalone HTML document
func HTML(title, md string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	var doc bytes.Buffer
	err := documentTmpl.Execute(&doc, struct {
		Title string
		Body  htmltemplate.HTML
	}{
		Title: title,
		Body:  htmltemplate.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return doc.String(), nil
}
