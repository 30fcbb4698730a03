package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubGenerator struct {
	text string
	err  error
	sys  string
	user string
}

func (s *stubGenerator) GenerateText(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.sys = systemPrompt
	s.user = userPrompt
	return s.text, s.err
}

func TestEnhanceBioTrimsReply(t *testing.T) {
	gen := &stubGenerator{text: "  A friendly bio.  "}
	enhancer := NewTextEnhancer(gen)
	bio, err := enhancer.EnhanceBio(context.Background(), "Ada", "draft", "loves chess")
	if err != nil {
		t.Fatalf("enhance bio: %v", err)
	}
	if bio != "A friendly bio." {
		t.Fatalf("bio = %q, want trimmed reply", bio)
	}
	if !strings.Contains(gen.user, "Ada") || !strings.Contains(gen.user, "loves chess") {
		t.Fatalf("user prompt = %q, want name and fun facts included", gen.user)
	}
}

func TestEnhanceBioEmptyReplyIsError(t *testing.T) {
	enhancer := NewTextEnhancer(&stubGenerator{text: "   "})
	if _, err := enhancer.EnhanceBio(context.Background(), "Ada", "draft", ""); err == nil {
		t.Fatalf("empty model reply must be an error")
	}
}

func TestEnhanceBioPropagatesGeneratorError(t *testing.T) {
	want := errors.New("model down")
	enhancer := NewTextEnhancer(&stubGenerator{err: want})
	if _, err := enhancer.EnhanceBio(context.Background(), "Ada", "draft", ""); !errors.Is(err, want) {
		t.Fatalf("error = %v, want the generator error", err)
	}
}
