package llm

import (
	"regexp"
	"strings"
)

// fenceRe matches a whole response wrapped in a markdown code fence, with an
// optional language tag and an optional closing fence.
var fenceRe = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\n?(.*?)\\s*(?:```)?\\s*$")

// CleanJSONBlock removes markdown code fences models add around JSON even
// when asked not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// ExtractJSONObject returns the outermost {...} span of text after removing
// code fences, or the cleaned text when no object is found.
func ExtractJSONObject(text string) string {
	text = CleanJSONBlock(text)
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
