// Package web holds the embedded page templates.
package web

import (
	"embed"
	"html/template"

	"github.com/andresuchdata/storeadmin/internal/domain"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.gohtml
var files embed.FS

// Funcs are the helpers available to every page.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money":    domain.FormatMoney,
		"qty":      domain.FormatQuantity,
		"decimal":  func(d decimal.Decimal) string { return d.StringFixed(2) },
		"selected": func(a, b int64) bool { return a == b },
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.gohtml")
}
