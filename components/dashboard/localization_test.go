package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/reference"
)

type stubTranslationService struct {
	value string
	err   error
}

func (s stubTranslationService) Translate(ctx context.Context, key, locale string, args map[string]any) (string, error) {
	return s.value, s.err
}

func TestResolveLocalizedValue(t *testing.T) {
	values := map[string]string{
		"en":    "Maadi",
		"ar":    "المعادي",
		"ar-eg": "المعادى",
	}
	if got := ResolveLocalizedValue(values, "ar-eg", "fallback"); got != "المعادى" {
		t.Fatalf("expected region-specific match, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "ar-sa", "fallback"); got != "المعادي" {
		t.Fatalf("expected base locale fallback, got %q", got)
	}
	if got := ResolveLocalizedValue(values, "fr", "Maadi"); got != "Maadi" {
		t.Fatalf("expected fallback when locale missing, got %q", got)
	}
	if got := ResolveLocalizedValue(nil, "ar", "Maadi"); got != "Maadi" {
		t.Fatalf("expected fallback when no localized map, got %q", got)
	}
}

func TestTranslateOrFallback(t *testing.T) {
	svc := stubTranslationService{value: "الفروع"}
	out := translateOrFallback(context.Background(), svc, "nav.branches", "ar", "Branches", nil)
	if out != "الفروع" {
		t.Fatalf("expected translator value, got %q", out)
	}
	svc = stubTranslationService{err: errors.New("boom")}
	out = translateOrFallback(context.Background(), svc, "nav.branches", "ar", "Branches", nil)
	if out != "Branches" {
		t.Fatalf("expected fallback on error, got %q", out)
	}
	if out := translateOrFallback(context.Background(), nil, "nav.branches", "ar", "", nil); out != "nav.branches" {
		t.Fatalf("expected key as last resort, got %q", out)
	}
}

func TestCatalogTranslator(t *testing.T) {
	doc := &reference.Document{Translations: map[string]map[string]string{
		"en": {"login.invalid_pin": "Invalid PIN", "sync.step": "Step {n} of {total}"},
		"ar": {"login.invalid_pin": "الرقم السري غير صحيح"},
	}}
	tr := NewCatalogTranslator(doc, "en")
	ctx := context.Background()

	if got, _ := tr.Translate(ctx, "login.invalid_pin", "ar-EG", nil); got != "الرقم السري غير صحيح" {
		t.Fatalf("expected arabic string, got %q", got)
	}
	got, err := tr.Translate(ctx, "sync.step", "ar", map[string]any{"n": 2, "total": 6})
	if err != nil || got != "Step 2 of 6" {
		t.Fatalf("expected interpolated english fallback, got %q (%v)", got, err)
	}
	if _, err := tr.Translate(ctx, "missing.key", "en", nil); !errors.Is(err, errMissingTranslation) {
		t.Fatalf("expected missing translation error, got %v", err)
	}
	strs := tr.Strings("ar")
	if strs["login.invalid_pin"] != "الرقم السري غير صحيح" || strs["sync.step"] == "" {
		t.Fatalf("unexpected merged catalog %v", strs)
	}
}

func TestAlertMessageFallsBackAcrossLanguages(t *testing.T) {
	alert := liveops.Alert{Message: "", MessageEn: "Oven down"}
	if got := AlertMessage(alert, LanguageArabic); got != "Oven down" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	alert = liveops.Alert{Message: "نقص في المخزون", MessageEn: "Low Stock"}
	if got := AlertMessage(alert, LanguageArabic); got != "نقص في المخزون" {
		t.Fatalf("expected arabic message, got %q", got)
	}
	if got := AlertMessage(alert, LanguageEnglish); got != "Low Stock" {
		t.Fatalf("expected english message, got %q", got)
	}
}
