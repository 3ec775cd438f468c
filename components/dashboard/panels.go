package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/reference"
)

// Provider builds the data a tab needs to render.
type Provider interface {
	Fetch(ctx context.Context, meta PanelContext) (PanelData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta PanelContext) (PanelData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta PanelContext) (PanelData, error) {
	return f(ctx, meta)
}

// PanelContext contains everything a provider may read. Providers must not
// mutate it.
type PanelContext struct {
	State      UIState
	Live       liveops.Snapshot
	Reference  *reference.Document
	Translator TranslationService
	Charts     ChartRenderer
}

// Language returns the viewer language, defaulting to Arabic.
func (m PanelContext) Language() Language {
	if m.State.Language.Valid() {
		return m.State.Language
	}
	return LanguageArabic
}

// T translates key for the viewer, returning the key itself when missing.
func (m PanelContext) T(ctx context.Context, key string) string {
	return translateOrFallback(ctx, m.Translator, key, string(m.Language()), "", nil)
}

// PanelData is an opaque payload passed to templates and JSON clients.
type PanelData map[string]any

// Registry maps tabs to providers. Callers may swap a tab's provider to
// feed it from a real source.
type Registry struct {
	mu        sync.RWMutex
	providers map[Tab]Provider
}

// NewRegistry builds a registry with the default tab providers.
func NewRegistry() *Registry {
	return &Registry{providers: defaultProviders()}
}

// RegisterProvider replaces the provider of a tab.
func (r *Registry) RegisterProvider(tab Tab, provider Provider) error {
	if !tab.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}
	if provider == nil {
		return fmt.Errorf("dashboard: provider for %s cannot be nil", tab)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[tab] = provider
	return nil
}

// Provider fetches the provider of a tab.
func (r *Registry) Provider(tab Tab) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[tab]
	return provider, ok
}
