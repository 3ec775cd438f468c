package dashboard

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/goliatone/go-bakeryops/components/reference"
)

const (
	defaultDashboardTemplate = "dashboard.html"
	defaultLoginTemplate     = "login.html"
)

// ViewResolver is the part of Service the controller renders from.
type ViewResolver interface {
	View(ctx context.Context, viewer ViewerContext) (View, error)
	LoginView(lang Language) LoginView
}

// LoginView holds what the login page shows.
type LoginView struct {
	Lang    Language          `json:"lang"`
	Dir     string            `json:"dir"`
	Company reference.Company `json:"company"`
	Strings map[string]string `json:"strings"`
}

// ControllerOptions configures the HTML controller.
type ControllerOptions struct {
	Service       ViewResolver
	Renderer      Renderer
	Template      string
	LoginTemplate string
}

// Controller renders the dashboard HTML for a viewer.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service and template renderer into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = defaultDashboardTemplate
	}
	if opts.LoginTemplate == "" {
		opts.LoginTemplate = defaultLoginTemplate
	}
	return &Controller{opts: opts}
}

// Render resolves the view for a viewer and returns it to the caller.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext) (View, error) {
	if c.opts.Service == nil {
		return View{}, errors.New("dashboard: controller requires service")
	}
	return c.opts.Service.View(ctx, viewer)
}

// RenderTemplate writes the dashboard page, or the login page when the
// viewer has no session.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: controller requires renderer")
	}
	view, err := c.Render(ctx, viewer)
	if errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrSessionNotFound) {
		return c.renderLogin(viewer, out)
	}
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, map[string]any{
		"view":  view,
		"t":     templateStrings(view.Strings),
		"panel": view.Panel,
		"state": view.State,
		// plain strings: the template engine compares values by type
		"lang":       string(view.State.Language),
		"tab":        string(view.State.ActiveTab),
		"draft_type": string(view.State.AlertDraft.Type),
	}, out)
	return err
}

func (c *Controller) renderLogin(viewer ViewerContext, out io.Writer) error {
	lang := Language(normalizeLocale(viewer.Locale))
	if !lang.Valid() {
		lang = LanguageArabic
	}
	login := c.opts.Service.LoginView(lang)
	_, err := c.opts.Renderer.Render(c.opts.LoginTemplate, map[string]any{
		"dir":     login.Dir,
		"lang":    string(login.Lang),
		"t":       templateStrings(login.Strings),
		"company": login.Company,
	}, out)
	return err
}

// templateStrings rewrites catalog keys for template lookups:
// `live.tile.foodics` becomes `live_tile_foodics`.
func templateStrings(catalog map[string]string) map[string]string {
	out := make(map[string]string, len(catalog))
	for key, value := range catalog {
		out[strings.ReplaceAll(key, ".", "_")] = value
	}
	return out
}
