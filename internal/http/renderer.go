package httpx

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/target/mmk-ui-client/internal/api"
	"github.com/target/mmk-ui-client/internal/domain/route"
	"github.com/target/mmk-ui-client/internal/service"
)

//go:embed views/*.tmpl
var viewsFS embed.FS

// PageData is the view model shared by every console page.
type PageData struct {
	Title       string
	AppTitle    string
	Route       route.Route
	CurrentPath string
	Nav         []route.Route
	Status      service.Status
	// Redirect is the resume path carried by the login form.
	Redirect string
	// CSRFToken is echoed by every form and htmx request that changes state.
	CSRFToken string
	Error     string
	Metrics   *api.HealthMetrics
	Schedule  []api.ScheduleItem
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing *.tmpl (optional, defaults to the embedded views)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	fsys := cfg.TemplateFS
	pattern := "*.tmpl"
	if fsys == nil {
		fsys = viewsFS
		pattern = "views/*.tmpl"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{logger: logger}

	var t *template.Template
	funcs := template.FuncMap{
		"renderContent": func(data PageData) (template.HTML, error) {
			var buf bytes.Buffer
			if err := t.ExecuteTemplate(&buf, ContentTemplateFor(data.Route), data); err != nil {
				return "", err
			}
			//nolint:gosec // output of html/template execution is already escaped
			return template.HTML(buf.String()), nil
		},
	}
	t, err := template.New("root").Funcs(funcs).ParseFS(fsys, pattern)
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if t.Lookup("layout") == nil || t.Lookup("content") == nil {
		return nil, errors.New("templates must define layout and content")
	}
	renderer.t = t
	return renderer, nil
}

// Render writes the full layout, or only the content fragment for htmx requests.
func (r *TemplateRenderer) Render(w http.ResponseWriter, req *http.Request, status int, data PageData) error {
	name := "layout"
	if WantsPartial(req) {
		name = "content"
	}
	return r.renderTemplate(w, status, name, data)
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, status int, templateName string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logger.Error("template execution failed",
			slog.String("template", templateName),
			slog.Any("error", err),
		)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", templateName),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}
