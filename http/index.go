package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/pkg/errors"

	"github.com/quantonganh/waitlist/export"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))
	adminTemplate = template.Must(template.ParseFS(templateFS, "templates/admin.html"))
)

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, nil); err != nil {
		return errors.Wrap(err, "indexTemplate.Execute")
	}
	return nil
}

// adminPageHandler serves the admin view. The page holds no data: it fetches
// the listing with the operator's password and builds the CSV in the browser.
func (s *Server) adminPageHandler(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	data := struct {
		PasswordHeader string
		Header         string
		FileName       string
	}{
		PasswordHeader: adminPasswordHeader,
		Header:         export.Header,
		FileName:       export.FileName,
	}
	if err := adminTemplate.Execute(w, data); err != nil {
		return errors.Wrap(err, "adminTemplate.Execute")
	}
	return nil
}
