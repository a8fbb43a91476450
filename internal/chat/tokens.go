package chat

import "unicode/utf8"

// EstimateTokens approximates the model-token cost of a text from its
// rune count: two characters per token, minimum one. Deliberately crude;
// it only serves as a defensive cap on how much history fits, not as a
// real tokenizer.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / 2
	if n < 1 {
		return 1
	}
	return n
}
