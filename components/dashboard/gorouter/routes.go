package gorouter

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/dashboard/httpapi"
	"github.com/goliatone/go-bakeryops/components/liveops"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Subscriber hands out live feed subscriptions. *liveops.Broadcaster
// satisfies it.
type Subscriber interface {
	Subscribe() (<-chan liveops.Event, func())
}

// Config wires go-router with the dashboard controller, API handlers and
// live feed.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            *httpapi.Handlers
	Broadcast      Subscriber
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
	// Assets serves the built front end at Routes.Assets when set.
	Assets fs.FS
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML      string
	API       string
	WebSocket string
	Assets    string
}

// Register mounts the dashboard routes (HTML, JSON API, WebSocket, static
// assets) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}

	group := cfg.Router.Group(cfg.BasePath)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := viewerResolver(ctx)
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	if cfg.API != nil {
		registerAPI(group.Group(routes.API), cfg.API, viewerResolver)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	if cfg.Assets != nil {
		cfg.Router.Static(routes.Assets, ".", router.Static{
			FS:     cfg.Assets,
			Root:   ".",
			MaxAge: 86400,
		})
	}

	return nil
}

type endpoint func(context.Context, httpapi.Request) httpapi.Response

func registerAPI[T any](r router.Router[T], api *httpapi.Handlers, resolver ViewerResolver) {
	r.Post("/session/login", wrap(api.Login, resolver))
	r.Post("/session/logout", wrap(api.Logout, resolver))
	r.Get("/session/state", wrap(api.State, resolver))
	r.Post("/session/tab", wrap(api.SelectTab, resolver))
	r.Post("/session/language", wrap(api.SetLanguage, resolver))
	r.Post("/session/financials", wrap(api.SetFinancials, resolver))
	r.Post("/session/alert-draft", wrap(api.UpdateUI, resolver))
	r.Post("/session/ui", wrap(api.UpdateUI, resolver))
	r.Post("/alerts", wrap(api.SubmitAlert, resolver))
	r.Post("/sync", wrap(api.RunSync, resolver))
	r.Get("/view", wrap(api.View, resolver))
	r.Get("/live", wrap(api.Live, resolver))
	r.Get("/logs", wrap(api.ListLogs, resolver))
	r.Post("/logs", wrap(api.AppendLog, resolver))
}

func wrap(fn endpoint, resolver ViewerResolver) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		req := requestFrom(ctx, resolver)
		reqCtx := dashboard.WithOperator(ctx.Context(), dashboard.Operator{
			SessionID: req.SessionID,
			Channel:   dashboard.ChannelRouter,
		})
		resp := fn(reqCtx, req)
		return ctx.JSON(resp.Status, resp.Body)
	})
}

func requestFrom(ctx router.Context, resolver ViewerResolver) httpapi.Request {
	viewer := resolver(ctx)
	return httpapi.Request{
		SessionID: viewer.SessionID,
		Locale:    viewer.Locale,
		Body:      ctx.Body(),
		Query:     func(key string) string { return ctx.Query(key) },
	}
}

func registerWebSocket[T any](r router.Router[T], feed Subscriber, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := feed.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	return dashboard.ViewerContext{
		SessionID: httpapi.ResolveSessionID(ctx.Header(httpapi.SessionHeader), ctx.Query(httpapi.SessionQueryParam)),
		Locale:    inferLocale(ctx),
	}
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return httpapi.ParseAcceptLanguage(ctx.Header("Accept-Language"))
}

func respondError(ctx router.Context, status int, err error) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return ctx.JSON(status, httpapi.ErrorBody{Error: err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.API == "" {
		routes.API = "/api"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/api/live/ws"
	}
	if routes.Assets == "" {
		routes.Assets = "/"
	}
	return routes
}
