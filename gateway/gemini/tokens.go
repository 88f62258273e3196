package gemini

import "math"

// tokenEstimator is a fast approximation of token usage, used only to
// feed the rate limiter; it never blocks a valid request on its own.
type tokenEstimator struct {
	safetyMargin float64
}

func newTokenEstimator() *tokenEstimator {
	return &tokenEstimator{
		safetyMargin: 1.2,
	}
}

func (e *tokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	charCount := len([]rune(text))
	tokenEstimate := float64(charCount) / 4.0
	tokenEstimate *= e.safetyMargin

	return int(math.Ceil(tokenEstimate)) + 3
}
