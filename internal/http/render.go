package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/johanWP/DevSkillTracker/internal/application"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	pageLogin     = "login.html"
	pageLoading   = "loading.html"
	pageDashboard = "dashboard.html"
)

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"views": Views,
	"proficiencies": func() []int {
		levels := make([]int, 0, application.MaxProficiency-application.MinProficiency+1)
		for level := application.MinProficiency; level <= application.MaxProficiency; level++ {
			levels = append(levels, level)
		}
		return levels
	},
	"defaultProficiency": func() int { return application.DefaultProficiency },
}

// renderer executes the embedded page templates, each wrapped in the shared layout.
type renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

func newRenderer(logger *slog.Logger) (*renderer, error) {
	pages := make(map[string]*template.Template)
	for _, page := range []string{pageLogin, pageLoading, pageDashboard} {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("http: parse template %s: %w", page, err)
		}
		pages[page] = tmpl
	}
	return &renderer{pages: pages, logger: defaultLogger(logger)}, nil
}

func mustRenderer(logger *slog.Logger) *renderer {
	r, err := newRenderer(logger)
	if err != nil {
		panic(err)
	}
	return r
}

// render buffers the page so a template error never leaves a half-written response.
func (r *renderer) render(w http.ResponseWriter, req *http.Request, status int, page string, data any) {
	tmpl, ok := r.pages[page]
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logger := LoggerFromContext(req.Context())
		if logger == nil {
			logger = r.logger
		}
		logger.ErrorContext(req.Context(), "failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
