package dashboard

import (
	"slices"
	"time"

	"github.com/goliatone/go-bakeryops/components/liveops"
)

// Tab identifies a dashboard section.
type Tab string

const (
	TabOverview   Tab = "overview"
	TabLive       Tab = "live"
	TabBranches   Tab = "branches"
	TabFinancials Tab = "financials"
	TabOperations Tab = "operations"
	TabMarket     Tab = "market"
)

// Tabs lists the sections in navigation order.
func Tabs() []Tab {
	return []Tab{TabOverview, TabLive, TabBranches, TabFinancials, TabOperations, TabMarket}
}

// Valid reports whether t names a known tab.
func (t Tab) Valid() bool {
	return slices.Contains(Tabs(), t)
}

// Language is a UI language.
type Language string

const (
	LanguageArabic  Language = "ar"
	LanguageEnglish Language = "en"
)

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	return l == LanguageArabic || l == LanguageEnglish
}

// Toggle returns the other supported language.
func (l Language) Toggle() Language {
	if l == LanguageArabic {
		return LanguageEnglish
	}
	return LanguageArabic
}

// Dir is the text direction of the language.
func (l Language) Dir() string {
	if l == LanguageArabic {
		return "rtl"
	}
	return "ltr"
}

// AlertDraft is the incident form being filled in.
type AlertDraft struct {
	Type      liveops.Severity `json:"type"`
	Message   string           `json:"message"`
	MessageEn string           `json:"messageEn"`
	Branch    string           `json:"branch"`
}

// Financials holds the estimator inputs.
type Financials struct {
	WasteLevel int    `json:"waste_level"`
	Role       string `json:"role"`
	Months     int    `json:"months"`
}

const (
	MinWasteLevel     = 1
	MaxWasteLevel     = 10
	DefaultWasteLevel = 5
	MinPayrollMonths  = 1
	MaxPayrollMonths  = 3
	DefaultRole       = "CHEF"
)

// UIState is the serializable per-session view state.
type UIState struct {
	SessionID       string     `json:"session_id"`
	Authenticated   bool       `json:"authenticated"`
	ActiveTab       Tab        `json:"active_tab"`
	Language        Language   `json:"language"`
	EditMode        bool       `json:"edit_mode"`
	AlertFormOpen   bool       `json:"alert_form_open"`
	AlertDraft      AlertDraft `json:"alert_draft"`
	SelectedAlertID string     `json:"selected_alert_id,omitempty"`
	Financials      Financials `json:"financials"`
	SyncLog         []string   `json:"sync_log"`
	Syncing         bool       `json:"syncing"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Clone deep-copies the state.
func (s UIState) Clone() UIState {
	s.SyncLog = slices.Clone(s.SyncLog)
	return s
}

// ViewerContext carries the caller identity resolved by transports.
type ViewerContext struct {
	SessionID string
	Locale    string
}

// SessionUpdate mutates a session's UI state.
type SessionUpdate struct {
	SessionID string      `json:"-"`
	Tab       *Tab        `json:"tab,omitempty"`
	Language  *Language   `json:"language,omitempty"`
	EditMode  *bool       `json:"edit_mode,omitempty"`
	AlertForm *bool       `json:"alert_form_open,omitempty"`
	Draft     *AlertDraft `json:"alert_draft,omitempty"`
	Selected  *string     `json:"selected_alert_id,omitempty"`
	Financial *Financials `json:"financials,omitempty"`
}
