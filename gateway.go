package tryon

import "context"

// Gateway is the boundary to the external generative backend. The core
// only depends on this contract; both operations are single-attempt and
// non-idempotent, with no automatic retry on this side of the boundary.
type Gateway interface {
	// SynthesizeImage executes an image-edit request and returns the
	// synthesized image. An empty provider result is an error.
	SynthesizeImage(ctx context.Context, req *GatewayRequest) (*SynthesisResult, error)

	// Consult executes a grounded-chat request and returns the stylist's
	// answer with its web citations. Empty text is not an error; the
	// normalizer substitutes a fallback phrase.
	Consult(ctx context.Context, req *GatewayRequest) (*ConsultResult, error)
}

// HistoryEntry is one prior exchange supplied to a consult request as
// grounding context.
type HistoryEntry struct {
	Role Role
	Text string
}

// GatewayRequest is the provider-agnostic payload for both routes.
//
// For the edit route, Images holds the edit base first and the style
// reference second (when present) and Instruction carries the full edit
// prompt. For the consult route, Images holds the single most recent look
// image, Caption directs the backend's attention to frame attributes,
// Text is the raw user message, History is the prior conversation, and
// GroundingEnabled requests web-search grounding.
type GatewayRequest struct {
	Images      []ImageRef
	Instruction string

	Caption string
	Text    string
	History []HistoryEntry

	GroundingEnabled bool

	// UsedReference records whether a style reference was attached, so
	// the normalizer can phrase the acknowledgement accordingly.
	UsedReference bool
}

// SynthesisResult is a successful image-edit response.
type SynthesisResult struct {
	Image ImageRef
}

// ConsultResult is a successful grounded-chat response. Citations are in
// backend-provided order and may contain incomplete entries; the
// normalizer filters them.
type ConsultResult struct {
	Text      string
	Citations []Citation
}
