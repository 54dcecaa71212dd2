package prompts

import "fmt"

// RelevanceSystemPrompt instructs the model to answer with a bare number.
const RelevanceSystemPrompt = "You are a helpful assistant that analyzes the relevance of text to a given query. " +
	"Respond with a number between 0 and 1, where 0 is completely unrelated and 1 is highly related."

// RelevanceUserPrompt builds the user message for one post.
func RelevanceUserPrompt(text, query string) string {
	return fmt.Sprintf("Analyze the relevance of the following text to the query %q: %q", query, text)
}
