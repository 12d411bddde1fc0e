// Package webui renders the upload form and its result view.
package webui

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// View carries everything the index page can show. WordCount is a pointer
// so a legitimate count of zero still renders.
type View struct {
	FileName  string
	WordCount *int
	Error     string
}

// RenderIndex writes the index page for v.
func RenderIndex(w io.Writer, v View) error {
	return indexTmpl.Execute(w, v)
}
