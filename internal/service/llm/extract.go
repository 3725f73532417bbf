package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	codeFenceRegex   = regexp.MustCompile("(?i)```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	trailingObjRegex = regexp.MustCompile(`\{[\s\S]*\}$`)
)

// ErrEmptyOutput is returned when there is no text to parse
var ErrEmptyOutput = errors.New("model returned no text")

// CleanCodeBlocks removes markdown code fences, keeping their contents
func CleanCodeBlocks(text string) string {
	return strings.TrimSpace(codeFenceRegex.ReplaceAllString(text, "$1"))
}

// ExtractJSON recovers a JSON object from free text. It strips code fences, then takes
// the span from the first "{" that reaches a closing "}" at the very end of the text,
// falling back to the whole text. Multiple brace blocks in prose can select the wrong
// span; the result is then a parse error, never a partial object.
func ExtractJSON(text string) (json.RawMessage, error) {
	unfenced := CleanCodeBlocks(text)
	if unfenced == "" {
		return nil, ErrEmptyOutput
	}

	candidate := unfenced
	if match := trailingObjRegex.FindString(unfenced); match != "" {
		candidate = match
	}

	var probe interface{}
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, err
	}
	return json.RawMessage(candidate), nil
}
