package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "json code block", input: "```json\n{\"score\": 70}\n```", expected: `{"score": 70}`},
		{name: "generic code block", input: "```\n{\"score\": 70}\n```", expected: `{"score": 70}`},
		{name: "code block with language", input: "```javascript\n{\"score\": 70}\n```", expected: `{"score": 70}`},
		{name: "plain JSON", input: `  {"score": 70}  `, expected: `{"score": 70}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: `{"score": 10}`, expected: `{"score": 10}`},
		{name: "leading prose", input: "Here is the rating: {\"score\": 10} hope it helps", expected: `{"score": 10}`},
		{name: "fenced nested", input: "```json\n{\"score\": 10, \"meta\": {\"a\": 1}}\n```", expected: `{"score": 10, "meta": {"a": 1}}`},
		{name: "no object", input: "not json", expected: "not json"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}

func TestCleanJSONBlock_UnclosedFence(t *testing.T) {
	assert.Equal(t, `{"score": 70}`, CleanJSONBlock("```json\n{\"score\": 70}"))
}
