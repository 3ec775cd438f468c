package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/dashboard/commands"
	"github.com/goliatone/go-bakeryops/components/dashboard/queries"
	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/synclog"
	gocommand "github.com/goliatone/go-command"
)

// SessionHeader carries the dashboard session id.
const SessionHeader = "X-Session-ID"

// SessionQueryParam is the query fallback for SessionHeader, used by
// browsers opening the HTML page or an event stream.
const SessionQueryParam = "session"

var errMissingHandler = errors.New("httpapi: handler not configured")

// Translator resolves the user facing error strings.
type Translator interface {
	Translate(ctx context.Context, key string, lang dashboard.Language) string
}

// Handlers exposes dashboard endpoints backed by shared commands and
// queries. The methods are transport neutral; NewMux and the gorouter
// package adapt them to a concrete server.
type Handlers struct {
	LoginCommander    gocommand.Commander[commands.LoginInput]
	LogoutCommander   gocommand.Commander[commands.LogoutInput]
	UpdateCommander   gocommand.Commander[dashboard.SessionUpdate]
	LanguageCommander gocommand.Commander[commands.ToggleLanguageInput]
	AlertCommander    gocommand.Commander[commands.SubmitAlertInput]
	SyncCommander     gocommand.Commander[commands.RunSyncInput]
	LogCommander      gocommand.Commander[commands.AppendLogInput]

	StateQuery gocommand.Querier[dashboard.ViewerContext, dashboard.UIState]
	ViewQuery  gocommand.Querier[dashboard.ViewerContext, dashboard.View]
	LiveQuery  gocommand.Querier[queries.LiveSnapshotInput, liveops.Snapshot]
	LogsQuery  gocommand.Querier[queries.RecentLogsInput, []synclog.Record]

	Validator  dashboard.PayloadValidator
	Translator Translator
}

// Request is the transport neutral view of an incoming call.
type Request struct {
	SessionID string
	Locale    string
	Body      []byte
	Query     func(key string) string
}

func (r Request) viewer() dashboard.ViewerContext {
	return dashboard.ViewerContext{SessionID: r.SessionID, Locale: r.Locale}
}

func (r Request) query(key string) string {
	if r.Query == nil {
		return ""
	}
	return strings.TrimSpace(r.Query(key))
}

// Response is the status and JSON body to write back.
type Response struct {
	Status int
	Body   any
}

func ok(body any) Response {
	return Response{Status: http.StatusOK, Body: body}
}

// ErrorBody is the JSON shape of every failure.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Failure maps err to its status code and error body.
func Failure(err error) Response {
	return Response{Status: StatusFor(err), Body: ErrorBody{Error: err.Error()}}
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrInvalidPIN),
		errors.Is(err, dashboard.ErrSessionNotFound),
		errors.Is(err, dashboard.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, dashboard.ErrInvalidTab),
		errors.Is(err, dashboard.ErrInvalidLanguage),
		errors.Is(err, dashboard.ErrInvalidDraft),
		errors.Is(err, dashboard.ErrInvalidFinancials),
		errors.Is(err, dashboard.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrSyncInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(err error) Response {
	return Response{Status: http.StatusBadRequest, Body: ErrorBody{Error: err.Error()}}
}

func decode(body []byte, dst any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

// Login opens a session for a matching pin. A rejected pin answers 401
// with the translated rejection notice.
func (h *Handlers) Login(ctx context.Context, req Request) Response {
	if h.LoginCommander == nil {
		return Failure(errMissingHandler)
	}
	var input commands.LoginInput
	if err := decode(req.Body, &input); err != nil {
		return badRequest(err)
	}
	var state dashboard.UIState
	input.Result = &state
	if err := h.LoginCommander.Execute(ctx, input); err != nil {
		if errors.Is(err, dashboard.ErrInvalidPIN) {
			return Response{Status: http.StatusUnauthorized, Body: ErrorBody{
				Error: h.translate(ctx, "login.invalid_pin", req.Locale, err.Error()),
				Code:  "invalid_pin",
			}}
		}
		return Failure(err)
	}
	return ok(state)
}

// Logout closes the caller's session.
func (h *Handlers) Logout(ctx context.Context, req Request) Response {
	if h.LogoutCommander == nil {
		return Failure(errMissingHandler)
	}
	if err := h.LogoutCommander.Execute(ctx, commands.LogoutInput{SessionID: req.SessionID}); err != nil {
		return Failure(err)
	}
	return ok(map[string]string{"status": "ok"})
}

// State returns the caller's UI state.
func (h *Handlers) State(ctx context.Context, req Request) Response {
	if h.StateQuery == nil {
		return Failure(errMissingHandler)
	}
	state, err := h.StateQuery.Query(ctx, req.viewer())
	if err != nil {
		return Failure(err)
	}
	return ok(state)
}

// SelectTab switches the active tab. Body: {"tab": "live"}.
func (h *Handlers) SelectTab(ctx context.Context, req Request) Response {
	var body struct {
		Tab dashboard.Tab `json:"tab"`
	}
	if err := decode(req.Body, &body); err != nil {
		return badRequest(err)
	}
	return h.update(ctx, req, dashboard.SessionUpdate{Tab: &body.Tab})
}

// SetLanguage sets {"language": "en"}, or flips the language when the
// body names none.
func (h *Handlers) SetLanguage(ctx context.Context, req Request) Response {
	var body struct {
		Language dashboard.Language `json:"language"`
	}
	if err := decode(req.Body, &body); err != nil {
		return badRequest(err)
	}
	if body.Language != "" {
		return h.update(ctx, req, dashboard.SessionUpdate{Language: &body.Language})
	}
	if h.LanguageCommander == nil {
		return Failure(errMissingHandler)
	}
	if err := h.LanguageCommander.Execute(ctx, commands.ToggleLanguageInput{SessionID: req.SessionID}); err != nil {
		return Failure(err)
	}
	return h.State(ctx, req)
}

// SetFinancials updates the estimator inputs. Omitted fields keep their
// current value.
func (h *Handlers) SetFinancials(ctx context.Context, req Request) Response {
	var body struct {
		WasteLevel *int    `json:"waste_level"`
		Role       *string `json:"role"`
		Months     *int    `json:"months"`
	}
	if err := decode(req.Body, &body); err != nil {
		return badRequest(err)
	}
	if h.StateQuery == nil {
		return Failure(errMissingHandler)
	}
	state, err := h.StateQuery.Query(ctx, req.viewer())
	if err != nil {
		return Failure(err)
	}
	fin := state.Financials
	if body.WasteLevel != nil {
		fin.WasteLevel = *body.WasteLevel
	}
	if body.Role != nil {
		fin.Role = *body.Role
	}
	if body.Months != nil {
		fin.Months = *body.Months
	}
	return h.update(ctx, req, dashboard.SessionUpdate{Financial: &fin})
}

// UpdateUI applies a partial SessionUpdate: alert draft, form visibility,
// incident selection and edit mode.
func (h *Handlers) UpdateUI(ctx context.Context, req Request) Response {
	var update dashboard.SessionUpdate
	if err := decode(req.Body, &update); err != nil {
		return badRequest(err)
	}
	return h.update(ctx, req, update)
}

func (h *Handlers) update(ctx context.Context, req Request, update dashboard.SessionUpdate) Response {
	if h.UpdateCommander == nil {
		return Failure(errMissingHandler)
	}
	update.SessionID = req.SessionID
	if err := h.UpdateCommander.Execute(ctx, update); err != nil {
		return Failure(err)
	}
	return h.State(ctx, req)
}

// SubmitAlert inserts a manual alert. Without a draft in the body the
// session's current draft is submitted.
func (h *Handlers) SubmitAlert(ctx context.Context, req Request) Response {
	if h.AlertCommander == nil {
		return Failure(errMissingHandler)
	}
	var input commands.SubmitAlertInput
	if err := decode(req.Body, &input); err != nil {
		return badRequest(err)
	}
	var alert liveops.Alert
	input.SessionID = req.SessionID
	input.Result = &alert
	if err := h.AlertCommander.Execute(ctx, input); err != nil {
		return Failure(err)
	}
	return Response{Status: http.StatusCreated, Body: alert}
}

// RunSync starts the scripted sync for the caller's session.
func (h *Handlers) RunSync(ctx context.Context, req Request) Response {
	if h.SyncCommander == nil {
		return Failure(errMissingHandler)
	}
	if err := h.SyncCommander.Execute(ctx, commands.RunSyncInput{SessionID: req.SessionID}); err != nil {
		return Failure(err)
	}
	return Response{Status: http.StatusAccepted, Body: map[string]string{"status": "syncing"}}
}

// View returns the resolved active tab as JSON.
func (h *Handlers) View(ctx context.Context, req Request) Response {
	if h.ViewQuery == nil {
		return Failure(errMissingHandler)
	}
	view, err := h.ViewQuery.Query(ctx, req.viewer())
	if err != nil {
		return Failure(err)
	}
	return ok(view)
}

// Live returns the generator snapshot.
func (h *Handlers) Live(ctx context.Context, _ Request) Response {
	if h.LiveQuery == nil {
		return Failure(errMissingHandler)
	}
	snapshot, err := h.LiveQuery.Query(ctx, queries.LiveSnapshotInput{})
	if err != nil {
		return Failure(err)
	}
	return ok(snapshot)
}

// ListLogs returns up to 50 log rows, newest first. An optional `limit`
// query narrows the page.
func (h *Handlers) ListLogs(ctx context.Context, req Request) Response {
	if h.LogsQuery == nil {
		return Failure(errMissingHandler)
	}
	var input queries.RecentLogsInput
	if raw := req.query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(err)
		}
		input.Limit = limit
	}
	records, err := h.LogsQuery.Query(ctx, input)
	if err != nil {
		return Failure(err)
	}
	if records == nil {
		records = []synclog.Record{}
	}
	return ok(records)
}

// AppendLog stores {"message": "..."} and answers {"status":"ok"}.
func (h *Handlers) AppendLog(ctx context.Context, req Request) Response {
	if h.LogCommander == nil {
		return Failure(errMissingHandler)
	}
	if h.Validator != nil {
		if err := h.Validator.Validate(dashboard.SchemaLogEntry, req.Body); err != nil {
			return Failure(err)
		}
	}
	var input commands.AppendLogInput
	if err := decode(req.Body, &input); err != nil {
		return badRequest(err)
	}
	if err := h.LogCommander.Execute(ctx, input); err != nil {
		return Failure(err)
	}
	return ok(map[string]string{"status": "ok"})
}

func (h *Handlers) translate(ctx context.Context, key, locale, fallback string) string {
	if h.Translator == nil {
		return fallback
	}
	lang := dashboard.Language(strings.ToLower(strings.SplitN(locale, "-", 2)[0]))
	if !lang.Valid() {
		lang = dashboard.LanguageArabic
	}
	if msg := h.Translator.Translate(ctx, key, lang); msg != "" && msg != key {
		return msg
	}
	return fallback
}
