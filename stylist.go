package tryon

import (
	"log/slog"
	"time"
)

// Stylist is the engine behind try-on sessions. It owns the gateway and
// the ambient collaborators (logger, optional look storage, clock) and
// hands out isolated Sessions; it holds no per-conversation state itself.
type Stylist struct {
	gateway Gateway
	logger  *slog.Logger
	storage Storage
	now     func() time.Time
}

// StylistOption configures the Stylist.
type StylistOption func(*Stylist)

// WithLogger sets a structured logger for the stylist and its sessions.
func WithLogger(logger *slog.Logger) StylistOption {
	return func(s *Stylist) {
		s.logger = logger
	}
}

// WithStorage sets a storage backend for persisting synthesized looks.
// Persistence is best effort: a storage failure never fails the turn.
func WithStorage(storage Storage) StylistOption {
	return func(s *Stylist) {
		s.storage = storage
	}
}

// WithClock overrides the timestamp source for transcript turns.
func WithClock(now func() time.Time) StylistOption {
	return func(s *Stylist) {
		s.now = now
	}
}

// NewStylist creates a Stylist backed by the given gateway.
//
// Example:
//
//	gw, err := gemini.NewWithAPIKey(ctx, apiKey)
//	if err != nil {
//	    return err
//	}
//	stylist := tryon.NewStylist(gw, tryon.WithLogger(slog.Default()))
//	session := stylist.NewSession()
func NewStylist(gateway Gateway, opts ...StylistOption) *Stylist {
	s := &Stylist{
		gateway: gateway,
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewSession starts an empty consultation session. Sessions are fully
// isolated from one another; they share only the stylist's collaborators.
func (s *Stylist) NewSession() *Session {
	return &Session{
		stylist: s,
		look:    &LookState{},
	}
}
