package dashboard

import (
	"context"
	"crypto/subtle"
	"errors"
)

// DefaultPIN unlocks the dashboard when no other code is configured.
const DefaultPIN = "3130"

// ErrInvalidPIN is returned when the submitted code does not match.
var ErrInvalidPIN = errors.New("dashboard: invalid pin")

// Authenticator checks login codes.
type Authenticator interface {
	Authenticate(ctx context.Context, pin string) error
}

// PINAuthenticator compares against a single fixed code. There is no
// lockout or throttling.
type PINAuthenticator struct {
	PIN string
}

// Authenticate returns ErrInvalidPIN on mismatch.
func (a PINAuthenticator) Authenticate(_ context.Context, pin string) error {
	want := a.PIN
	if want == "" {
		want = DefaultPIN
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(want)) != 1 {
		return ErrInvalidPIN
	}
	return nil
}
