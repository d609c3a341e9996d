package dashboard

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/Sumatoshi-tech/dendrotime/pkg/plotpage"
)

//go:embed static/index.html
var staticFS embed.FS

var indexTemplate = template.Must(template.ParseFS(staticFS, "static/index.html"))

type indexData struct {
	Theme     plotpage.ThemeConfig
	DarkClass string
}

func (s *Server) handleIndex(rw http.ResponseWriter, hr *http.Request) {
	data := indexData{Theme: plotpage.GetThemeConfig(s.cfg.Theme)}
	if s.cfg.Theme != plotpage.ThemeLight {
		data.DarkClass = "dark"
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := indexTemplate.Execute(rw, data)
	if err != nil {
		s.logger.ErrorContext(hr.Context(), "render dashboard page", "error", err)
	}
}
