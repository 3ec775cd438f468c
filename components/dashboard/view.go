package dashboard

import (
	"context"
	"fmt"

	"github.com/goliatone/go-bakeryops/components/reference"
)

// TabLink is one navigation entry.
type TabLink struct {
	Tab    Tab    `json:"tab"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// View is everything needed to draw the dashboard for one session.
type View struct {
	State    UIState           `json:"state"`
	Dir      string            `json:"dir"`
	Company  reference.Company `json:"company"`
	Tabs     []TabLink         `json:"tabs"`
	Branches []string          `json:"branches"`
	Strings  map[string]string `json:"strings"`
	Panel    PanelData         `json:"panel"`
}

// View resolves the active tab of the viewer's session. A viewer locale,
// when valid, overrides the session language for this render only.
func (s *Service) View(ctx context.Context, viewer ViewerContext) (View, error) {
	state, err := s.State(ctx, viewer.SessionID)
	if err != nil {
		return View{}, err
	}
	if lang := Language(normalizeLocale(viewer.Locale)); lang.Valid() {
		state.Language = lang
	}
	provider, ok := s.opts.Panels.Provider(state.ActiveTab)
	if !ok {
		return View{}, fmt.Errorf("%w: no provider for %q", ErrInvalidTab, state.ActiveTab)
	}
	meta := PanelContext{
		State:      state,
		Live:       s.opts.Feed.Snapshot(),
		Reference:  s.opts.Reference,
		Translator: s.opts.Translator,
		Charts:     s.opts.Charts,
	}
	panel, err := provider.Fetch(ctx, meta)
	if err != nil {
		s.recordTelemetry(ctx, "dashboard.panel.provider_error", map[string]any{
			"tab":   state.ActiveTab,
			"error": err.Error(),
		})
		return View{}, fmt.Errorf("dashboard: view %s: %w", state.ActiveTab, err)
	}

	tabs := make([]TabLink, 0, len(Tabs()))
	for _, tab := range Tabs() {
		tabs = append(tabs, TabLink{
			Tab:    tab,
			Label:  meta.T(ctx, "nav."+string(tab)),
			Active: tab == state.ActiveTab,
		})
	}
	branches := make([]string, 0, len(s.opts.Reference.Branches))
	for _, b := range s.opts.Reference.Branches {
		branches = append(branches, b.NameEn)
	}
	view := View{
		State:    state,
		Dir:      state.Language.Dir(),
		Company:  s.opts.Reference.Company,
		Tabs:     tabs,
		Branches: branches,
		Strings:  s.strings(state.Language),
		Panel:    panel,
	}
	s.recordTelemetry(ctx, "dashboard.view.resolve", map[string]any{
		"session_id": state.SessionID,
		"tab":        state.ActiveTab,
	})
	return view, nil
}

func (s *Service) strings(lang Language) map[string]string {
	if catalog, ok := s.opts.Translator.(interface {
		Strings(locale string) map[string]string
	}); ok {
		return catalog.Strings(string(lang))
	}
	return map[string]string{}
}

// LoginView returns the strings the login page needs.
func (s *Service) LoginView(lang Language) LoginView {
	if !lang.Valid() {
		lang = LanguageArabic
	}
	return LoginView{
		Lang:    lang,
		Dir:     lang.Dir(),
		Company: s.opts.Reference.Company,
		Strings: s.strings(lang),
	}
}
