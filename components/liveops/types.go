package liveops

import (
	"strings"
	"time"
)

// Platform names the ordering channel an order arrived through.
type Platform string

const (
	PlatformTalabat   Platform = "Talabat"
	PlatformFoodics   Platform = "Foodics"
	PlatformInstagram Platform = "Instagram"
	PlatformBreadfast Platform = "Breadfast"
)

// CounterKey is the key the platform's running total is tracked under.
func (p Platform) CounterKey() string {
	return strings.ToLower(string(p))
}

// Severity classifies an operational alert.
type Severity string

const (
	SeverityError   Severity = "Error"
	SeverityWarning Severity = "Warning"
	SeverityInfo    Severity = "Info"
)

// Valid reports whether the severity is one of the known levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Order is a simulated incoming order.
type Order struct {
	ID        string    `json:"id"`
	Platform  Platform  `json:"platform"`
	Branch    string    `json:"branch"`
	Amount    int       `json:"amount"`
	CreatedAt time.Time `json:"timestamp"`
}

// Message is a bilingual alert text pair.
type Message struct {
	AR string `json:"ar"`
	EN string `json:"en"`
}

// Alert is an operational alert, generated or reported by a user.
type Alert struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"type"`
	Message   string    `json:"message"`
	MessageEn string    `json:"messageEn"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"timestamp"`
	Manual    bool      `json:"manual,omitempty"`
}

// AlertInput carries the user-supplied fields of a manually reported alert.
type AlertInput struct {
	Severity  Severity `json:"type"`
	Message   string   `json:"message"`
	MessageEn string   `json:"messageEn"`
	Branch    string   `json:"branch"`
}

// Snapshot is a point-in-time copy of the generator state.
type Snapshot struct {
	Orders    []Order        `json:"orders"`
	Alerts    []Alert        `json:"alerts"`
	Counts    map[string]int `json:"counts"`
	Running   bool           `json:"running"`
	CreatedAt time.Time      `json:"generated_at"`
}

// EventKind distinguishes feed events.
type EventKind string

const (
	EventOrder       EventKind = "order"
	EventAlert       EventKind = "alert"
	EventManualAlert EventKind = "alert.manual"
)

// Event is emitted to hooks every time the feed changes.
type Event struct {
	Kind   EventKind      `json:"kind"`
	Order  *Order         `json:"order,omitempty"`
	Alert  *Alert         `json:"alert,omitempty"`
	Counts map[string]int `json:"counts,omitempty"`
}
