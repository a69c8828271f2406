package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	s, err := New(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", s.cfg.Model)
	assert.Equal(t, 500, s.cfg.MaxTokens)
}

func TestBuildPromptNumbersPassagesInOrder(t *testing.T) {
	prompt := buildPrompt([]string{"closest passage", "second passage"}, "what is this?")

	assert.Contains(t, prompt, "1. closest passage")
	assert.Contains(t, prompt, "2. second passage")
	assert.Contains(t, prompt, "Question: what is this?")
	assert.Less(t,
		strings.Index(prompt, "closest passage"),
		strings.Index(prompt, "second passage"),
		"passages must keep their distance ordering",
	)
}
