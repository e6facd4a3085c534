package openai

import "regexp"

// DefaultMaxQuestionLength keeps questions around a hundred tokens, which is
// all a single football question ever needs.
const DefaultMaxQuestionLength = 250

// injectionPatterns reject text likely to be a prompt-injection attempt
// before it is ever sent to the model.
var injectionPatterns = []*regexp.Regexp{
	// role / instruction hijacking
	regexp.MustCompile(`(?i)\b(?:ignore|disregard|override)[^.\n]*?(?:system|previous|prior|developer|assistant)\b`),
	// explicit role field in JSON
	regexp.MustCompile(`(?i)"\s*role"\s*:\s*"`),
	// code fences and long delimiters
	regexp.MustCompile("(?s)(?:```|~~~|<<|>>|\\|-)"),
	// comment tokens that could break a JSON reply
	regexp.MustCompile(`(?s)/\*\*|//`),
	// MIME / header injection
	regexp.MustCompile(`(?i)content\s*-\s*type\s*:`),
}

var controlChars = regexp.MustCompile("[\x00-\x1f\x7f]")

// IsSafePrompt enforces the length cap, rejects control characters and scans
// for known jailbreak patterns. Unsafe prompts never reach the model; the
// caller treats them as unsupported questions.
func IsSafePrompt(text string, maxLength int) bool {
	if maxLength <= 0 {
		maxLength = DefaultMaxQuestionLength
	}
	if len(text) > maxLength {
		return false
	}
	if controlChars.MatchString(text) {
		return false
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(text) {
			return false
		}
	}
	return true
}
