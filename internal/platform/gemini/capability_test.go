package gemini

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/config"
	"github.com/daybreak-app/daybreak-api/internal/generation"
)

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		ModelName:         "gemini-2.0-flash",
		MaxRetries:        1,
		RetryDelaySeconds: 1,
	}
}

func TestNewCapability(t *testing.T) {
	t.Parallel()

	t.Run("requires logger", func(t *testing.T) {
		t.Parallel()

		_, err := NewCapability(nil, testLLMConfig())
		assert.Error(t, err)
	})

	t.Run("requires model name", func(t *testing.T) {
		t.Parallel()

		cfg := testLLMConfig()
		cfg.ModelName = ""
		_, err := NewCapability(slog.Default(), cfg)
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})
}

func TestRequestsRequireCredential(t *testing.T) {
	t.Parallel()

	capability, err := NewCapability(slog.Default(), testLLMConfig())
	require.NoError(t, err)

	_, err = capability.Analyze(context.Background(), generation.AnalyzeRequest{Text: "content"})
	assert.ErrorIs(t, err, generation.ErrMissingCredential)

	_, err = capability.GeneratePlan(context.Background(), generation.PlanRequest{
		Analysis: &generation.Analysis{},
	})
	assert.ErrorIs(t, err, generation.ErrMissingCredential)
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
		{"unclosed fence left alone", "```json\n{\"a\": 1}", "```json\n{\"a\": 1}"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, stripFences(tc.input))
		})
	}
}
