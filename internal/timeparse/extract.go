package timeparse

import (
	"strings"
	"time"
)

var specialPhrases = []string{"сейчас", "скоро", "потом", "позже", "вечером", "утром"}

// Extract pulls a time expression out of a free-form message and returns the
// remaining words as the reminder text. Quick create uses it: the user types
// "купить хлеб через 2 часа" in one message.
//
// Byte offsets found in the lowercased copy are applied to the original, which
// holds because ToLower keeps byte length for ASCII and Cyrillic.
func (p *Parser) Extract(input string) (string, time.Time, error) {
	trimmed := strings.TrimSpace(input)
	s := strings.ToLower(trimmed)

	start, end := -1, -1
	for _, rule := range relativeRules {
		if loc := rule.re.FindStringIndex(s); loc != nil && (start == -1 || loc[0] < start) {
			start, end = loc[0], loc[1]
		}
	}
	for _, rule := range absoluteRules {
		if loc := rule.re.FindStringIndex(s); loc != nil && (start == -1 || loc[0] < start) {
			start, end = loc[0], loc[1]
		}
	}
	if start == -1 {
		for _, phrase := range specialPhrases {
			if i := strings.Index(s, phrase); i != -1 && (start == -1 || i < start) {
				start, end = i, i+len(phrase)
			}
		}
	}
	if start == -1 {
		_, err := p.Parse(s) // reuse the unrecognized-format error
		return "", time.Time{}, err
	}

	t, err := p.Parse(s[start:end])
	if err != nil {
		return "", time.Time{}, err
	}

	// Cutting the expression out can leave a double space behind.
	text := strings.Join(strings.Fields(trimmed[:start]+trimmed[end:]), " ")
	return text, t, nil
}
