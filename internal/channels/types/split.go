package types

import "strings"

// SplitMessage splits text into chunks of at most maxLen characters (runes).
// It tries to split at natural boundaries: paragraphs, then lines, then
// sentences, then words.
func SplitMessage(text string, maxLen int) []string {
	runes := []rune(text)
	if len(runes) <= maxLen || maxLen <= 0 {
		return []string{text}
	}

	var chunks []string
	remaining := runes

	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			chunks = append(chunks, string(remaining))
			break
		}

		splitAt := findSplitPoint(remaining, maxLen)
		if chunk := strings.TrimSpace(string(remaining[:splitAt])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = []rune(strings.TrimSpace(string(remaining[splitAt:])))
	}

	return chunks
}

// findSplitPoint finds the best rune index to split at, preferring natural boundaries.
func findSplitPoint(text []rune, maxLen int) int {
	searchArea := string(text[:maxLen])

	lastIndex := func(sep string) int {
		idx := strings.LastIndex(searchArea, sep)
		if idx < 0 {
			return -1
		}
		return len([]rune(searchArea[:idx])) + len([]rune(sep))
	}

	for _, sep := range []string{"\n\n", "\n", "。", "！", "？", ". ", "! ", "? ", " "} {
		if at := lastIndex(sep); at > maxLen/2 {
			return at
		}
	}

	// Fallback: hard split at maxLen
	return maxLen
}
