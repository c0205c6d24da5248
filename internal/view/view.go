// Package view renders the server-side HTML pages. Templates are
// embedded in the binary so the server ships as a single artifact.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var files embed.FS

// Renderer implements echo.Renderer over the embedded template set.
type Renderer struct {
	templates *template.Template
}

// New parses the embedded templates once at startup.
func New() (*Renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	}).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render writes the named template with the given data.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
