package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-bakeryops/components/dashboard"
)

// maxBodyBytes bounds request bodies read by the mux.
const maxBodyBytes = 1 << 20

// LiveStreamer serves the live feed over long lived connections.
// *liveops.Broadcaster satisfies it.
type LiveStreamer interface {
	ServeSSE(w http.ResponseWriter, r *http.Request)
	ServeWebSocket(w http.ResponseWriter, r *http.Request)
}

// PageRenderer writes the HTML dashboard. *dashboard.Controller satisfies it.
type PageRenderer interface {
	RenderTemplate(ctx context.Context, viewer dashboard.ViewerContext, out io.Writer) error
}

// MuxOptions configures NewMux. Nil members leave their routes unmounted.
type MuxOptions struct {
	Page    PageRenderer
	Stream  LiveStreamer
	Metrics http.Handler
	Static  http.Handler
}

// NewMux mounts the handlers on a net/http ServeMux.
func NewMux(h *Handlers, opts MuxOptions) *http.ServeMux {
	mux := http.NewServeMux()
	routes := map[string]func(context.Context, Request) Response{
		"POST /api/session/login":       h.Login,
		"POST /api/session/logout":      h.Logout,
		"GET /api/session/state":        h.State,
		"POST /api/session/tab":         h.SelectTab,
		"POST /api/session/language":    h.SetLanguage,
		"POST /api/session/financials":  h.SetFinancials,
		"POST /api/session/alert-draft": h.UpdateUI,
		"POST /api/session/ui":          h.UpdateUI,
		"POST /api/alerts":              h.SubmitAlert,
		"POST /api/sync":                h.RunSync,
		"GET /api/view":                 h.View,
		"GET /api/live":                 h.Live,
		"GET /api/logs":                 h.ListLogs,
		"POST /api/logs":                h.AppendLog,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, Adapt(fn))
	}
	if opts.Stream != nil {
		mux.HandleFunc("GET /api/live/stream", opts.Stream.ServeSSE)
		mux.HandleFunc("GET /api/live/ws", opts.Stream.ServeWebSocket)
	}
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.Page != nil {
		mux.Handle("GET /dashboard", PageHandler(opts.Page))
	}
	if opts.Static != nil {
		mux.Handle("GET /", opts.Static)
	} else if opts.Page != nil {
		mux.Handle("GET /{$}", http.RedirectHandler("/dashboard", http.StatusFound))
	}
	return mux
}

// Adapt turns a transport neutral handler into an http.Handler.
func Adapt(fn func(context.Context, Request) Response) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := ReadRequest(r)
		if err != nil {
			WriteJSON(w, badRequest(err))
			return
		}
		ctx := dashboard.WithOperator(r.Context(), dashboard.Operator{
			SessionID: req.SessionID,
			Channel:   dashboard.ChannelHTTP,
		})
		WriteJSON(w, fn(ctx, req))
	})
}

// PageHandler renders the HTML dashboard, or the login page for callers
// without a session.
func PageHandler(page PageRenderer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		viewer := dashboard.ViewerContext{SessionID: SessionID(r), Locale: Locale(r)}
		if err := page.RenderTemplate(r.Context(), viewer, &buf); err != nil {
			WriteJSON(w, Failure(err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}

// ReadRequest extracts the session, locale and body of r.
func ReadRequest(r *http.Request) (Request, error) {
	req := Request{
		SessionID: SessionID(r),
		Locale:    Locale(r),
		Query:     r.URL.Query().Get,
	}
	if r.Body == nil {
		return req, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req, err
	}
	req.Body = body
	return req, nil
}

// SessionID reads the session from the header, then the query string.
func SessionID(r *http.Request) string {
	return ResolveSessionID(r.Header.Get(SessionHeader), r.URL.Query().Get(SessionQueryParam))
}

// ResolveSessionID prefers the header value over the query value.
func ResolveSessionID(header, query string) string {
	if id := strings.TrimSpace(header); id != "" {
		return id
	}
	return strings.TrimSpace(query)
}

// Locale reads the `locale` query, then the first Accept-Language tag.
func Locale(r *http.Request) string {
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return ParseAcceptLanguage(r.Header.Get("Accept-Language"))
}

// ParseAcceptLanguage returns the first tag of an Accept-Language header,
// lower-cased, without its quality value.
func ParseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = strings.TrimSpace(token[:idx])
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

// WriteJSON writes resp as a JSON document.
func WriteJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
