package tryon

// User-facing phrasing for normalized model turns.
const (
	editAckText          = "Done! Here's your updated look."
	editReferenceAckText = "Here's how those frames look on you!"

	consultFallbackText = "I couldn't come up with an answer for that. " +
		"Could you rephrase your question?"

	genericErrorText = "Something went wrong while processing that request. " +
		"Please try again."
	missingPhotoText = "Please upload a photo first so I can work with your look."
)

// maxCitations caps how many sources accompany a consult turn. The cap is
// applied here so the handoff to the UI is deterministic.
const maxCitations = 5

// editAcknowledgement phrases the model turn appended after a successful
// synthesis, acknowledging a reference-based try-on when one was used.
func editAcknowledgement(usedReference bool) string {
	if usedReference {
		return editReferenceAckText
	}
	return editAckText
}

// consultText substitutes the fallback phrase when the provider returned
// empty text; an empty transcript entry is never appended.
func consultText(text string) string {
	if text == "" {
		return consultFallbackText
	}
	return text
}

// filterCitations drops entries missing a title or URI, preserving the
// backend-provided order of the rest, and caps the result.
func filterCitations(raw []Citation) []Citation {
	var kept []Citation
	for _, c := range raw {
		if c.Title == "" || c.URI == "" {
			continue
		}
		kept = append(kept, c)
		if len(kept) == maxCitations {
			break
		}
	}
	return kept
}
