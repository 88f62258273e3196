package tryon

import "time"

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Citation is a web source backing a grounded stylist answer.
type Citation struct {
	Title string
	URI   string
}

// Turn is one entry in the session transcript. Turns are immutable once
// appended; transcript order is append order.
type Turn struct {
	Role      Role
	Text      string
	Timestamp time.Time
	IsError   bool
	Citations []Citation
}

// LookState tracks the images that make up the user's evolving look.
//
// Base is the user's original photo, set once per session and never
// overwritten. Current is the latest synthesized try-on result and is
// replaced only when a synthesis succeeds. Reference is a style image the
// user uploaded for try-on; it is transient and consumed by the next
// composed request unless re-supplied.
type LookState struct {
	Base      *ImageRef
	Current   *ImageRef
	Reference *ImageRef
}

// Latest returns the image representing the present visual state:
// Current if a synthesis has succeeded, otherwise Base.
func (l *LookState) Latest() *ImageRef {
	if l.Current != nil {
		return l.Current
	}
	return l.Base
}

// LookSnapshot is the base/current pair handed to the UI for
// side-by-side comparison.
type LookSnapshot struct {
	Base    *ImageRef
	Current *ImageRef
}

// Status reports whether a turn pipeline is in flight and, if so, a
// human-readable label for the current phase.
type Status struct {
	Generating bool
	Phase      string
}

// Phase labels surfaced while a pipeline is in flight.
const (
	PhaseSynthesizing = "synthesizing image"
	PhaseConsulting   = "consulting expert"
)
