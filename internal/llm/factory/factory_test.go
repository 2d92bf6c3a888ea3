// internal/llm/factory/factory_test.go
package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/polyedge/internal/config"
	"github.com/newthinker/polyedge/internal/core"
)

func TestNew_Providers(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		want string
	}{
		{
			name: "claude",
			cfg:  config.LLMConfig{Provider: "claude", Claude: config.ClaudeConfig{APIKey: "k", Model: "claude-3-5-haiku-latest"}},
			want: "claude",
		},
		{
			name: "openai without model falls back to default",
			cfg:  config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{APIKey: "k"}},
			want: "openai",
		},
		{
			name: "ollama without endpoint",
			cfg:  config.LLMConfig{Provider: "ollama", Ollama: config.OllamaConfig{Model: "llama3"}},
			want: "ollama",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LLMConfig
		code error
	}{
		{"unknown provider", config.LLMConfig{Provider: "gemini"}, core.ErrConfigInvalid},
		{"empty provider", config.LLMConfig{}, core.ErrConfigInvalid},
		{"claude without key", config.LLMConfig{Provider: "claude"}, core.ErrConfigMissing},
		{"openai without key", config.LLMConfig{Provider: "openai", OpenAI: config.OpenAIConfig{Model: "gpt-4o-mini"}}, core.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestNew_UnknownProviderNamesIt(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "gemini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini")
	assert.False(t, errors.Is(err, core.ErrConfigMissing))
}
