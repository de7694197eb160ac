package scrape

import (
	"net/http"
	"strings"
)

// Outcome classifies one fetch attempt.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeChallenge
	OutcomeHTTPError
	OutcomeNetworkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeChallenge:
		return "challenge"
	case OutcomeHTTPError:
		return "httpError"
	case OutcomeNetworkError:
		return "networkError"
	default:
		return "unknown"
	}
}

// challengeMarkers identify anti-automation verification pages served in
// place of real content. Matching is case-insensitive.
var challengeMarkers = []string{
	"captcha",
	"access denied",
	"pardon our interruption",
	"verify you are a human",
	"request unsuccessful. incapsula",
	"cf-browser-verification",
	"px-captcha",
	"are you a robot",
}

// IsChallenge reports whether a body looks like a bot-check page.
func IsChallenge(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// classify maps a completed HTTP response to an outcome. Challenge pages
// are often served with a 2xx status, so the body is checked first.
func classify(status int, body string) Outcome {
	if IsChallenge(body) {
		return OutcomeChallenge
	}
	if status >= 200 && status < 300 {
		return OutcomeSuccess
	}
	return OutcomeHTTPError
}

// retryEligible reports whether an attempt with this outcome and status
// should be retried. Clean client errors (404 and friends) terminate
// immediately; only rate limiting and transient server errors retry.
func retryEligible(outcome Outcome, status int) bool {
	switch outcome {
	case OutcomeChallenge, OutcomeNetworkError:
		return true
	case OutcomeHTTPError:
		return status == http.StatusTooManyRequests || status >= 500
	default:
		return false
	}
}
