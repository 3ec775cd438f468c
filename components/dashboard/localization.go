package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/reference"
)

var errMissingTranslation = errors.New("dashboard: missing translation")

// TranslationService resolves UI strings for a locale. Args are substituted
// into `{name}` placeholders.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// CatalogTranslator serves strings from a per-language catalog.
type CatalogTranslator struct {
	catalog  map[string]map[string]string
	fallback string
}

// NewCatalogTranslator builds a translator over the reference translations.
// Keys missing from a language fall back to fallbackLocale.
func NewCatalogTranslator(doc *reference.Document, fallbackLocale string) *CatalogTranslator {
	catalog := map[string]map[string]string{}
	if doc != nil {
		for lang, entries := range doc.Translations {
			catalog[normalizeLocale(lang)] = entries
		}
	}
	return &CatalogTranslator{catalog: catalog, fallback: normalizeLocale(fallbackLocale)}
}

// Translate looks key up for locale, trying the base language of regional
// locales (`ar-eg` → `ar`) and then the fallback locale.
func (t *CatalogTranslator) Translate(_ context.Context, key, locale string, args map[string]any) (string, error) {
	candidates := localeCandidates(locale)
	if t.fallback != "" {
		candidates = append(candidates, t.fallback)
	}
	for _, candidate := range candidates {
		if value, ok := t.catalog[candidate][key]; ok && value != "" {
			return interpolate(value, args), nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", errMissingTranslation, key, locale)
}

// Strings returns the whole catalog of a locale merged over the fallback.
func (t *CatalogTranslator) Strings(locale string) map[string]string {
	out := map[string]string{}
	for key, value := range t.catalog[t.fallback] {
		out[key] = value
	}
	candidates := localeCandidates(locale)
	for i := len(candidates) - 1; i >= 0; i-- {
		for key, value := range t.catalog[candidates[i]] {
			out[key] = value
		}
	}
	return out
}

func interpolate(value string, args map[string]any) string {
	if len(args) == 0 {
		return value
	}
	pairs := make([]string, 0, len(args)*2)
	for key, arg := range args {
		pairs = append(pairs, "{"+key+"}", fmt.Sprint(arg))
	}
	return strings.NewReplacer(pairs...).Replace(value)
}

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively, and language-region pairs (`ar-eg`) automatically fall back to their
// base language (`ar`) when present.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		if candidate == "" {
			continue
		}
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	if value, ok := values["default"]; ok && value != "" {
		return value
	}
	return fallback
}

// BranchName returns the branch label for the language.
func BranchName(branch reference.Branch, lang Language) string {
	return ResolveLocalizedValue(map[string]string{"ar": branch.Name, "en": branch.NameEn}, string(lang), branch.NameEn)
}

// BranchAddress returns the branch address for the language.
func BranchAddress(branch reference.Branch, lang Language) string {
	return ResolveLocalizedValue(map[string]string{"ar": branch.Address, "en": branch.AddressEn}, string(lang), branch.AddressEn)
}

// AlertMessage picks the alert text for the language, falling back to the
// other language when one side was left empty.
func AlertMessage(alert liveops.Alert, lang Language) string {
	fallback := alert.MessageEn
	if fallback == "" {
		fallback = alert.Message
	}
	return ResolveLocalizedValue(map[string]string{"ar": alert.Message, "en": alert.MessageEn}, string(lang), fallback)
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	candidates = append(candidates, "default")
	return candidates
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
