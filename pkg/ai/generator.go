package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// Any OpenAI-compatible provider can sit behind this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
