package planner

import "regexp"

// secretLikePattern matches key=value tokens whose value looks credential
// shaped: 20+ characters of alphanumerics/underscore/hyphen/plus/slash,
// the alphabet real API keys and tokens are drawn from.
var secretLikePattern = regexp.MustCompile(`(?i)([a-z0-9_\-]*(key|token|secret|password|credential)[a-z0-9_\-]*\s*[:=]\s*)([a-zA-Z0-9_\-+/]{20,})`)

const sanitizedReplacement = "$1[REDACTED]"

// sanitize strips secret-shaped substrings from text bound for the error
// branch's response_text. It never raises; unmatched text passes through
// unchanged.
func sanitize(text string) string {
	return secretLikePattern.ReplaceAllString(text, sanitizedReplacement)
}
