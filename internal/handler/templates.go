package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"altomayo/internal/availability"
	"altomayo/internal/model"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

// Сырой HTML в описаниях экранируется: WithUnsafe не задан.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"money":    func(m model.Money) string { return m.String() },
	"markdown": renderMarkdown,
	"percent": func(a availability.Availability) string {
		return fmt.Sprintf("%d%%", a.Percent)
	},
	"cover":    func(e model.Experience) string { return e.CoverImage() },
	"date": func(e model.Experience) string { return e.StartDateString() },
	"resdate": func(r model.Reservation) string {
		return r.DateString()
	},
	"add": func(a, b int) int { return a + b },
}

// Templates разбирает встроенные HTML-шаблоны страниц.
func Templates() (*template.Template, error) {
	t, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать шаблоны: %w", err)
	}
	return t, nil
}
