package tryon

import "strings"

// Route is the per-turn decision between visual synthesis and a grounded
// conversational answer. Routes are ephemeral and never persisted.
type Route string

const (
	RouteEditImage Route = "edit_image"
	RouteConsult   Route = "consult"
)

// commerceKeywords route to consultation: the user wants purchase help,
// not a new rendering. Checked before visual keywords, so a message
// containing both ("find similar gold frames") still consults.
var commerceKeywords = []string{
	"buy", "link", "where", "cost", "price", "brand", "shop", "find", "similar",
}

// visualKeywords route to image editing.
var visualKeywords = []string{
	"change", "make", "add", "remove", "wear", "try",
	"color", "style", "shape", "rim", "lens",
	"thinner", "thicker", "bigger", "smaller",
	"metal", "plastic", "tortoise", "transparent",
	"black", "white", "red", "blue", "green", "gold", "silver",
	"pink", "purple", "brown", "gray", "grey", "clear",
	"generate", "create", "visualize",
}

// Classify maps a user utterance to a Route.
//
// An explicit reference image is an unambiguous try-on request regardless
// of wording, so it short-circuits text analysis entirely. Otherwise the
// lower-cased text is matched against the commerce set first, then the
// visual set; neither matching defaults to consultation.
//
// Classify is pure and deterministic.
func Classify(text string, hasReferenceImage bool) Route {
	if hasReferenceImage {
		return RouteEditImage
	}

	lower := strings.ToLower(text)

	for _, kw := range commerceKeywords {
		if strings.Contains(lower, kw) {
			return RouteConsult
		}
	}

	for _, kw := range visualKeywords {
		if strings.Contains(lower, kw) {
			return RouteEditImage
		}
	}

	return RouteConsult
}
