package ai

import (
	"context"
	"fmt"
	"strings"
)

// BioEnhancer rewrites a profile bio draft into a short, friendly blurb.
type BioEnhancer interface {
	EnhanceBio(ctx context.Context, name, currentBio, funFact string) (string, error)
}

const bioSystemPrompt = "You are a helpful assistant for a social networking app " +
	"that helps people remember each other's names. Write a short, engaging, " +
	"friendly bio (max 2 sentences) for a user profile card. If the current bio " +
	"is empty, create one from the fun facts. Make it sound natural and approachable."

func bioUserPrompt(name, currentBio, funFact string) string {
	return fmt.Sprintf("User Name: %s\nCurrent Bio Draft: %s\nFun Facts: %s", name, currentBio, funFact)
}

// TextEnhancer adapts any TextGenerator into a BioEnhancer.
type TextEnhancer struct {
	generator TextGenerator
}

// NewTextEnhancer wraps a generator.
func NewTextEnhancer(g TextGenerator) *TextEnhancer {
	return &TextEnhancer{generator: g}
}

// EnhanceBio asks the model for an improved bio. An empty model reply is an
// error; callers fall back to the original text.
func (e *TextEnhancer) EnhanceBio(ctx context.Context, name, currentBio, funFact string) (string, error) {
	text, err := e.generator.GenerateText(ctx, bioSystemPrompt, bioUserPrompt(name, currentBio, funFact))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty bio from model")
	}
	return text, nil
}
