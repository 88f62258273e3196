package tryon

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// referenceUploadText is the implicit message for a reference-image turn.
const referenceUploadText = "try these on"

// Session is the authoritative record of one consultation: the append-only
// transcript, the look state, and the in-flight flag.
//
// Sessions enforce single-writer discipline: exactly one turn pipeline may
// be in flight at a time. A submission while a pipeline is running is
// rejected with ErrPipelineBusy, never interleaved. Gateway failures are
// normalized into error turns and never abort the session or corrupt the
// look state.
type Session struct {
	stylist *Stylist

	mu         sync.Mutex
	look       *LookState
	turns      []Turn
	generating bool
	phase      string
}

// SubmitUserPhoto seeds the session with the user's photo. It runs no
// pipeline. The base photo is set once; a second submission is rejected
// with ErrBaseImageSet until the photo is removed.
func (s *Session) SubmitUserPhoto(img ImageRef) error {
	if err := ValidateImage(img); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generating {
		return ErrPipelineBusy
	}
	if s.look.Base != nil {
		return ErrBaseImageSet
	}

	s.look.Base = img.clone()
	return nil
}

// RemoveUserPhoto discards the whole look state, including any
// synthesized current image and pending reference.
func (s *Session) RemoveUserPhoto() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generating {
		return ErrPipelineBusy
	}

	s.look = &LookState{}
	return nil
}

// SubmitReferenceImage stores a style reference and immediately runs a
// try-on turn with it. The reference is one-shot: it is consumed by the
// request composed for this turn and not carried into later turns unless
// re-supplied.
func (s *Session) SubmitReferenceImage(ctx context.Context, img ImageRef) error {
	if err := ValidateImage(img); err != nil {
		return err
	}

	if err := s.begin(); err != nil {
		return err
	}
	defer s.finish()

	s.mu.Lock()
	s.look.Reference = img.clone()
	s.mu.Unlock()

	return s.runTurn(ctx, referenceUploadText, true)
}

// SubmitMessage runs one full turn pipeline for a user message. Gateway
// failures are normalized into an error turn and reported as a nil return;
// only submission-level problems (busy pipeline, empty text, missing base
// photo) surface as errors.
func (s *Session) SubmitMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	if err := s.begin(); err != nil {
		return err
	}
	defer s.finish()

	return s.runTurn(ctx, text, false)
}

// History returns the transcript as an immutable view (a copy).
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]Turn, len(s.turns))
	copy(history, s.turns)
	return history
}

// Look returns the base/current pair for side-by-side comparison.
func (s *Session) Look() LookSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return LookSnapshot{
		Base:    s.look.Base.clone(),
		Current: s.look.Current.clone(),
	}
}

// Status reports whether a pipeline is in flight and its phase label.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{Generating: s.generating, Phase: s.phase}
}

// begin claims the single pipeline slot.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generating {
		return ErrPipelineBusy
	}
	s.generating = true
	return nil
}

// finish releases the pipeline slot. Every pipeline exit path goes
// through here so a failed turn never wedges the session.
func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generating = false
	s.phase = ""
}

// runTurn executes classify -> compose -> gateway -> normalize -> append.
// The gateway call is the only suspension point.
func (s *Session) runTurn(ctx context.Context, text string, hasReference bool) error {
	logger := s.stylist.logger
	route := Classify(text, hasReference)
	start := time.Now()

	logger.Debug("starting turn pipeline",
		"route", string(route),
		"text_length", len(text),
	)

	// Snapshot the history before this turn's user entry is appended: the
	// current message travels in the request text, not the grounding context.
	prior := s.History()

	s.appendTurn(Turn{Role: RoleUser, Text: text})

	s.mu.Lock()
	req, err := Compose(route, text, s.look, prior)
	if err == nil && req.UsedReference {
		// One-shot reference semantics: consumed by this compose,
		// regardless of how the gateway call turns out.
		s.look.Reference = nil
	}
	s.mu.Unlock()

	if err != nil {
		logger.Warn("turn rejected",
			"route", string(route),
			"error", err.Error(),
		)
		s.appendTurn(Turn{Role: RoleModel, Text: missingPhotoText, IsError: true})
		return err
	}

	switch route {
	case RouteEditImage:
		s.setPhase(PhaseSynthesizing)
		s.runEdit(ctx, req, logger, start)
	default:
		s.setPhase(PhaseConsulting)
		s.runConsult(ctx, req, logger, start)
	}

	return nil
}

func (s *Session) runEdit(ctx context.Context, req *GatewayRequest, logger *slog.Logger, start time.Time) {
	result, err := s.stylist.gateway.SynthesizeImage(ctx, req)
	duration := time.Since(start)

	if err != nil {
		logger.Error("synthesis failed",
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		s.appendTurn(Turn{Role: RoleModel, Text: genericErrorText, IsError: true})
		return
	}

	s.mu.Lock()
	s.look.Current = result.Image.clone()
	s.mu.Unlock()

	s.appendTurn(Turn{Role: RoleModel, Text: editAcknowledgement(req.UsedReference)})

	logger.Info("synthesis completed",
		"duration_ms", duration.Milliseconds(),
		"image_size", len(result.Image.Data),
		"used_reference", req.UsedReference,
	)

	if s.stylist.storage != nil {
		url, err := SaveLook(ctx, s.stylist.storage, &result.Image, "looks")
		if err != nil {
			logger.Warn("failed to persist look", "error", err.Error())
		} else {
			logger.Info("look persisted", "url", url)
		}
	}
}

func (s *Session) runConsult(ctx context.Context, req *GatewayRequest, logger *slog.Logger, start time.Time) {
	result, err := s.stylist.gateway.Consult(ctx, req)
	duration := time.Since(start)

	if err != nil {
		logger.Error("consultation failed",
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		s.appendTurn(Turn{Role: RoleModel, Text: genericErrorText, IsError: true})
		return
	}

	citations := filterCitations(result.Citations)
	s.appendTurn(Turn{
		Role:      RoleModel,
		Text:      consultText(result.Text),
		Citations: citations,
	})

	logger.Info("consultation completed",
		"duration_ms", duration.Milliseconds(),
		"citation_count", len(citations),
	)
}

func (s *Session) appendTurn(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn.Timestamp = s.stylist.now()
	s.turns = append(s.turns, turn)
}

func (s *Session) setPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = phase
}
