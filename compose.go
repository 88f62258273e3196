package tryon

import "fmt"

// Instruction fragments the backend is prompt-sensitive to. The fidelity
// qualifiers appear in both edit templates.
const (
	fidelityQualifiers = "The eyewear must sit naturally on the face with " +
		"correct perspective, lighting, and shadows. The result must be photorealistic."

	consultCaption = "This is the user's current look. Focus on the eyewear " +
		"frame attributes: shape, color, material, and fit."
)

// Compose builds the gateway request for a classified turn. It reads the
// look state and history but never mutates them.
//
// Both routes require a base photo; Compose fails fast with
// ErrMissingBaseImage before any request is assembled.
func Compose(route Route, text string, look *LookState, history []Turn) (*GatewayRequest, error) {
	if look == nil || look.Base == nil {
		return nil, ErrMissingBaseImage
	}

	switch route {
	case RouteEditImage:
		return composeEdit(text, look), nil
	default:
		return composeConsult(text, look, history), nil
	}
}

// composeEdit attaches the image representing the present visual state as
// the edit base, so successive edits compound instead of starting over
// from the original photo.
func composeEdit(text string, look *LookState) *GatewayRequest {
	base := look.Latest()

	req := &GatewayRequest{
		Images: []ImageRef{*base},
	}

	if look.Reference != nil {
		req.Images = append(req.Images, *look.Reference)
		req.UsedReference = true
		req.Instruction = fmt.Sprintf(
			"The first image is a photo of a person. The second image shows "+
				"eyewear to use as the style reference. Put the eyewear from the "+
				"second image on the person's face. %s %s", text, fidelityQualifiers)
	} else {
		req.Instruction = fmt.Sprintf(
			"Edit this photo of a person to: %s. %s", text, fidelityQualifiers)
	}

	return req
}

// composeConsult attaches the most recent look with a frame-focused
// caption and the recognized conversation so far. Error turns are noise
// to the provider and are excluded from the grounding context.
func composeConsult(text string, look *LookState, history []Turn) *GatewayRequest {
	req := &GatewayRequest{
		Images:           []ImageRef{*look.Latest()},
		Caption:          consultCaption,
		Text:             text,
		GroundingEnabled: true,
	}

	for _, turn := range history {
		if turn.IsError {
			continue
		}
		req.History = append(req.History, HistoryEntry{Role: turn.Role, Text: turn.Text})
	}

	return req
}
