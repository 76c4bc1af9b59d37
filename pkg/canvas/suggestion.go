package canvas

import "strings"

// ExtractSuggestion computes a proposed replacement fragment from raw
// model output, for the narrower "improve this excerpt" intent. It strips
// generation boilerplate prefixes and fenced-code wrappers; the canvas
// itself is left untouched until a separate acceptance action.
func ExtractSuggestion(raw string) string {
	text := strings.TrimSpace(raw)

	// A short leading line ending in ':' is boilerplate
	// ("Here is the improved text:" and friends), not content.
	if idx := strings.Index(text, "\n"); idx > 0 {
		first := strings.TrimSpace(text[:idx])
		if strings.HasSuffix(first, ":") && len(first) < 80 {
			text = strings.TrimSpace(text[idx+1:])
		}
	}

	// Unwrap a fenced code block wrapping the whole fragment.
	if strings.HasPrefix(text, "```") {
		rest := text[3:]
		// Skip the info string on the opening fence line.
		if idx := strings.Index(rest, "\n"); idx >= 0 {
			rest = rest[idx+1:]
		} else {
			rest = ""
		}
		if idx := strings.LastIndex(rest, "```"); idx >= 0 {
			rest = rest[:idx]
		}
		text = strings.TrimSpace(rest)
	}

	return text
}
