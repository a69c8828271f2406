package session

// EstimateTokens approximates how many model tokens a text costs, for
// trimming conversation history against a token budget. ASCII runs at
// roughly four characters per token; everything else (Cyrillic, CJK,
// emoji) is counted as a token per rune, which overestimates slightly
// and keeps the trimmed history on the safe side of the budget.
func EstimateTokens(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}
