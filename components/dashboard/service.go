package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/reference"
	"github.com/goliatone/go-bakeryops/components/synclog"
	"github.com/goliatone/go-bakeryops/pkg/activity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnauthenticated is returned when a call carries no session id.
	ErrUnauthenticated = errors.New("dashboard: session id is required")
	// ErrInvalidTab rejects unknown tab names.
	ErrInvalidTab = errors.New("dashboard: invalid tab")
	// ErrInvalidLanguage rejects languages other than ar and en.
	ErrInvalidLanguage = errors.New("dashboard: invalid language")
	// ErrInvalidFinancials rejects estimator inputs outside their ranges.
	ErrInvalidFinancials = errors.New("dashboard: invalid financials")
	// ErrInvalidDraft is returned when an alert draft fails validation.
	ErrInvalidDraft = errors.New("dashboard: invalid alert draft")

	errMissingLogStore = errors.New("dashboard: log store not configured")
)

// LiveFeed is the live operations source the dashboard displays.
// *liveops.Generator satisfies it.
type LiveFeed interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	Snapshot() liveops.Snapshot
	AddAlert(ctx context.Context, input liveops.AlertInput) liveops.Alert
}

// PanelRegistry resolves the provider of a tab.
type PanelRegistry interface {
	Provider(tab Tab) (Provider, bool)
}

// Options configures the dashboard Service. Every collaborator is an
// interface so transports and tests can swap implementations.
type Options struct {
	Feed          LiveFeed
	Sessions      SessionStore
	Authenticator Authenticator
	Reference     *reference.Document
	Translator    TranslationService
	Validator     PayloadValidator
	Panels        PanelRegistry
	Charts        ChartRenderer
	Sync          *SyncPipeline
	Logs          synclog.Store
	Activity      *activity.Emitter
	Telemetry     Telemetry
	Logger        *zap.Logger
	Clock         func() time.Time
	NewID         func() string
}

// Service owns dashboard sessions and turns their UI state into views.
type Service struct {
	opts Options

	feedMu sync.Mutex

	syncMu  sync.Mutex
	syncs   map[string]context.CancelFunc
	syncsWG sync.WaitGroup
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Feed == nil {
		opts.Feed = liveops.NewGenerator(liveops.Options{Logger: opts.Logger})
	}
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore()
	}
	if opts.Authenticator == nil {
		opts.Authenticator = PINAuthenticator{}
	}
	if opts.Reference == nil {
		opts.Reference = reference.Default()
	}
	if opts.Translator == nil {
		opts.Translator = NewCatalogTranslator(opts.Reference, string(LanguageEnglish))
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator()
	}
	if opts.Panels == nil {
		opts.Panels = NewRegistry()
	}
	if opts.Sync == nil {
		opts.Sync = NewSyncPipeline(opts.Logs, DefaultSyncDelay)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	opts.Telemetry = TelemetryOrNop(opts.Telemetry)
	return &Service{opts: opts, syncs: map[string]context.CancelFunc{}}
}

// Reference exposes the reference document the service renders.
func (s *Service) Reference() *reference.Document {
	return s.opts.Reference
}

// Translate resolves a UI string, returning key when it is missing.
func (s *Service) Translate(ctx context.Context, key string, lang Language) string {
	return translateOrFallback(ctx, s.opts.Translator, key, string(lang), "", nil)
}

// DefaultState is the UI state of a freshly authenticated session.
func (s *Service) DefaultState(id string) UIState {
	now := s.opts.Clock().UTC()
	return UIState{
		SessionID:     id,
		Authenticated: true,
		ActiveTab:     TabOverview,
		Language:      LanguageArabic,
		AlertDraft:    s.defaultDraft(),
		Financials: Financials{
			WasteLevel: DefaultWasteLevel,
			Role:       DefaultRole,
			Months:     MinPayrollMonths,
		},
		SyncLog:   []string{SyncReadyLine},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) defaultDraft() AlertDraft {
	draft := AlertDraft{Type: liveops.SeverityWarning}
	if branches := s.opts.Reference.Branches; len(branches) > 0 {
		draft.Branch = branches[0].NameEn
	}
	return draft
}

// Login checks the pin and opens a session. The first session starts the
// live feed.
func (s *Service) Login(ctx context.Context, pin string) (UIState, error) {
	if err := s.opts.Authenticator.Authenticate(ctx, pin); err != nil {
		s.recordTelemetry(ctx, "dashboard.session.login_failed", nil)
		return UIState{}, err
	}
	state := s.DefaultState(s.opts.NewID())
	if err := s.opts.Sessions.Create(ctx, state); err != nil {
		return UIState{}, fmt.Errorf("dashboard: login: %w", err)
	}
	if err := s.startFeed(ctx); err != nil {
		_ = s.opts.Sessions.Delete(ctx, state.SessionID)
		return UIState{}, err
	}
	s.emitActivity(ctx, state.SessionID, "session.login", "session", state.SessionID, nil)
	s.recordTelemetry(ctx, "dashboard.session.login", map[string]any{"session_id": state.SessionID})
	return state, nil
}

// Logout closes the session and cancels its sync. The last logout stops the
// live feed.
func (s *Service) Logout(ctx context.Context, id string) error {
	if _, err := s.State(ctx, id); err != nil {
		return err
	}
	s.cancelSync(id)
	if err := s.opts.Sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("dashboard: logout: %w", err)
	}
	if err := s.stopFeedIfIdle(ctx); err != nil {
		return err
	}
	s.emitActivity(ctx, id, "session.logout", "session", id, nil)
	s.recordTelemetry(ctx, "dashboard.session.logout", map[string]any{"session_id": id})
	return nil
}

func (s *Service) startFeed(ctx context.Context) error {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	if s.opts.Feed.Running() {
		return nil
	}
	// The feed outlives the login request.
	if err := s.opts.Feed.Start(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, liveops.ErrGeneratorRunning) {
		return fmt.Errorf("dashboard: start live feed: %w", err)
	}
	return nil
}

func (s *Service) stopFeedIfIdle(ctx context.Context) error {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	count, err := s.opts.Sessions.Count(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: count sessions: %w", err)
	}
	if count == 0 {
		s.opts.Feed.Stop()
	}
	return nil
}

// State returns the session's UI state.
func (s *Service) State(ctx context.Context, id string) (UIState, error) {
	if id == "" {
		return UIState{}, ErrUnauthenticated
	}
	return s.opts.Sessions.Get(ctx, id)
}

// Update applies every non-nil field of update after validating it. Either
// all fields apply or none do.
func (s *Service) Update(ctx context.Context, update SessionUpdate) (UIState, error) {
	if update.SessionID == "" {
		return UIState{}, ErrUnauthenticated
	}
	if err := s.validateUpdate(update); err != nil {
		return UIState{}, err
	}
	state, err := s.opts.Sessions.Update(ctx, update.SessionID, func(state *UIState) error {
		if update.Tab != nil {
			state.ActiveTab = *update.Tab
		}
		if update.Language != nil {
			state.Language = *update.Language
		}
		if update.EditMode != nil {
			state.EditMode = *update.EditMode
		}
		if update.AlertForm != nil {
			state.AlertFormOpen = *update.AlertForm
		}
		if update.Draft != nil {
			state.AlertDraft = *update.Draft
		}
		if update.Selected != nil {
			state.SelectedAlertID = *update.Selected
		}
		if update.Financial != nil {
			state.Financials = *update.Financial
		}
		state.UpdatedAt = s.opts.Clock().UTC()
		return nil
	})
	if err != nil {
		return UIState{}, err
	}
	s.recordTelemetry(ctx, "dashboard.session.update", map[string]any{
		"session_id": update.SessionID,
		"tab":        state.ActiveTab,
		"language":   state.Language,
	})
	return state, nil
}

func (s *Service) validateUpdate(update SessionUpdate) error {
	if update.Tab != nil && !update.Tab.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTab, *update.Tab)
	}
	if update.Language != nil && !update.Language.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, *update.Language)
	}
	if update.Draft != nil && update.Draft.Type != "" && !update.Draft.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidDraft, update.Draft.Type)
	}
	if update.Financial != nil {
		return s.validateFinancials(*update.Financial)
	}
	return nil
}

func (s *Service) validateFinancials(fin Financials) error {
	switch {
	case fin.WasteLevel < MinWasteLevel || fin.WasteLevel > MaxWasteLevel:
		return fmt.Errorf("%w: waste level %d outside %d..%d", ErrInvalidFinancials, fin.WasteLevel, MinWasteLevel, MaxWasteLevel)
	case fin.Months < MinPayrollMonths || fin.Months > MaxPayrollMonths:
		return fmt.Errorf("%w: months %d outside %d..%d", ErrInvalidFinancials, fin.Months, MinPayrollMonths, MaxPayrollMonths)
	}
	if _, ok := s.opts.Reference.PayrollFor(fin.Role); !ok {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidFinancials, fin.Role)
	}
	return nil
}

// SelectTab switches the active tab.
func (s *Service) SelectTab(ctx context.Context, id string, tab Tab) (UIState, error) {
	return s.Update(ctx, SessionUpdate{SessionID: id, Tab: &tab})
}

// SetLanguage switches the UI language.
func (s *Service) SetLanguage(ctx context.Context, id string, lang Language) (UIState, error) {
	return s.Update(ctx, SessionUpdate{SessionID: id, Language: &lang})
}

// ToggleLanguage flips between Arabic and English.
func (s *Service) ToggleLanguage(ctx context.Context, id string) (UIState, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return UIState{}, err
	}
	return s.SetLanguage(ctx, id, state.Language.Toggle())
}

// SetFinancials replaces the estimator inputs.
func (s *Service) SetFinancials(ctx context.Context, id string, fin Financials) (UIState, error) {
	return s.Update(ctx, SessionUpdate{SessionID: id, Financial: &fin})
}

// SubmitAlert validates the draft, inserts it into the live feed and resets
// the form. A nil draft submits the one stored in the session.
func (s *Service) SubmitAlert(ctx context.Context, id string, draft *AlertDraft) (liveops.Alert, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return liveops.Alert{}, err
	}
	submitted := state.AlertDraft
	if draft != nil {
		submitted = *draft
	}
	if err := s.opts.Validator.Validate(SchemaAlertDraft, submitted); err != nil {
		return liveops.Alert{}, fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	alert := s.opts.Feed.AddAlert(ctx, liveops.AlertInput{
		Severity:  submitted.Type,
		Message:   submitted.Message,
		MessageEn: submitted.MessageEn,
		Branch:    submitted.Branch,
	})
	if _, err := s.opts.Sessions.Update(ctx, id, func(state *UIState) error {
		state.AlertDraft = s.defaultDraft()
		state.AlertFormOpen = false
		state.UpdatedAt = s.opts.Clock().UTC()
		return nil
	}); err != nil {
		return alert, err
	}
	s.emitActivity(ctx, id, "alert.report", "alert", alert.ID, map[string]any{
		"type":   string(alert.Severity),
		"branch": alert.Branch,
	})
	s.recordTelemetry(ctx, "dashboard.alert.submit", map[string]any{
		"alert_id": alert.ID,
		"type":     alert.Severity,
	})
	return alert, nil
}

// RunSync starts the scripted sync for the session in the background. Each
// emitted line is appended to the session's sync log. Only one run per
// session may be active.
func (s *Service) RunSync(ctx context.Context, id string) error {
	if id == "" {
		return ErrUnauthenticated
	}
	if _, err := s.opts.Sessions.Update(ctx, id, func(state *UIState) error {
		if state.Syncing {
			return ErrSyncInProgress
		}
		state.Syncing = true
		return nil
	}); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.syncMu.Lock()
	s.syncs[id] = cancel
	s.syncsWG.Add(1)
	s.syncMu.Unlock()

	runID := s.opts.NewID()
	s.recordTelemetry(ctx, "dashboard.sync.start", map[string]any{"session_id": id, "run_id": runID})
	go func() {
		defer s.syncsWG.Done()
		defer cancel()
		err := s.opts.Sync.Run(runCtx, func(line string) {
			if _, err := s.opts.Sessions.Update(runCtx, id, func(state *UIState) error {
				state.SyncLog = append(state.SyncLog, line)
				state.UpdatedAt = s.opts.Clock().UTC()
				return nil
			}); err != nil {
				cancel()
			}
		})
		s.finishSync(runCtx, id, runID, err)
	}()
	return nil
}

func (s *Service) finishSync(ctx context.Context, id, runID string, runErr error) {
	s.syncMu.Lock()
	delete(s.syncs, id)
	s.syncMu.Unlock()

	_, _ = s.opts.Sessions.Update(context.WithoutCancel(ctx), id, func(state *UIState) error {
		state.Syncing = false
		return nil
	})
	status := "completed"
	if runErr != nil {
		status = "cancelled"
		s.opts.Logger.Info("sync stopped", zap.String("session_id", id), zap.Error(runErr))
	}
	s.emitActivity(context.WithoutCancel(ctx), id, "sync.run", "sync", runID, map[string]any{"status": status})
	s.recordTelemetry(ctx, "dashboard.sync."+status, map[string]any{"session_id": id, "run_id": runID})
}

func (s *Service) cancelSync(id string) {
	s.syncMu.Lock()
	cancel, ok := s.syncs[id]
	s.syncMu.Unlock()
	if ok {
		cancel()
	}
}

// Close cancels running syncs and waits for them to finish.
func (s *Service) Close() {
	s.syncMu.Lock()
	for _, cancel := range s.syncs {
		cancel()
	}
	s.syncMu.Unlock()
	s.syncsWG.Wait()
}

// Live returns the current live feed snapshot.
func (s *Service) Live(context.Context) liveops.Snapshot {
	return s.opts.Feed.Snapshot()
}

// AppendLog persists a log line.
func (s *Service) AppendLog(ctx context.Context, message string) (synclog.Record, error) {
	if s.opts.Logs == nil {
		return synclog.Record{}, errMissingLogStore
	}
	record, err := s.opts.Logs.Append(ctx, message)
	if err != nil {
		return synclog.Record{}, err
	}
	s.recordTelemetry(ctx, "dashboard.log.append", map[string]any{"log_id": record.ID})
	return record, nil
}

// RecentLogs returns up to limit log lines, newest first.
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]synclog.Record, error) {
	if s.opts.Logs == nil {
		return nil, errMissingLogStore
	}
	return s.opts.Logs.Recent(ctx, limit)
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) emitActivity(ctx context.Context, sessionID, verb, objectType, objectID string, metadata map[string]any) {
	if !s.opts.Activity.Enabled() {
		return
	}
	op, _ := OperatorFrom(ctx)
	if op.SessionID == "" {
		op.SessionID = sessionID
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["session_id"] = sessionID
	err := s.opts.Activity.Emit(ctx, activity.Event{
		Verb:       verb,
		ActorID:    op.SessionID,
		Channel:    op.Channel,
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
		OccurredAt: s.opts.Clock().UTC(),
	})
	if err != nil {
		s.recordTelemetry(ctx, "dashboard.activity.error", map[string]any{"verb": verb, "error": err.Error()})
	}
}
