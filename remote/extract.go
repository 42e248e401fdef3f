package remote

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tonalhq/keysense/keyfind"
)

// fencePattern matches a markdown code-fence delimiter with an optional
// language tag, case-insensitively (e.g. ```json, ```JSON, ```)
var fencePattern = regexp.MustCompile("(?i)```[a-z]*")

// StripMarkdownFences removes markdown code-fence delimiters by literal
// text removal, leaving the fenced payload in place.
func StripMarkdownFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.Contains(trimmed, "```") {
		return trimmed
	}

	return strings.TrimSpace(fencePattern.ReplaceAllString(trimmed, ""))
}

// ExtractJSONObject recovers a JSON object from noisy model text using a
// three-stage strategy:
//
//  1. parse the whole trimmed text directly; success short-circuits
//  2. strip markdown code fences and retry the direct parse
//  3. scan the fence-stripped text for the first balanced brace-delimited
//     object with a quote/escape-aware state machine, and parse that span
//
// Any failure to recover an object is a MalformedOutputError.
func ExtractJSONObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &keyfind.MalformedOutputError{Reason: "empty model response"}
	}

	if obj, err := parseObject(trimmed); err == nil {
		return obj, nil
	}

	stripped := StripMarkdownFences(trimmed)
	if obj, err := parseObject(stripped); err == nil {
		return obj, nil
	}

	span, err := firstBalancedObject(stripped)
	if err != nil {
		return nil, err
	}

	obj, err := parseObject(span)
	if err != nil {
		return nil, &keyfind.MalformedOutputError{Reason: "extracted span is not valid JSON", Err: err}
	}

	return obj, nil
}

func parseObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// scanState is the state of the brace-balance scanner
type scanState int

const (
	scanOutside scanState = iota // Not inside a string literal
	scanInString
	scanEscaped // Inside a string, immediately after a backslash
)

// firstBalancedObject returns the first balanced {...} span of the text.
// Braces inside string literals (including escaped quotes) never affect
// nesting depth. Works in a single pass without recursion.
func firstBalancedObject(text string) (string, error) {
	state := scanOutside
	depth := 0
	start := -1

	for i := 0; i < len(text); i++ {
		ch := text[i]

		switch state {
		case scanInString:
			switch ch {
			case '\\':
				state = scanEscaped
			case '"':
				state = scanOutside
			}

		case scanEscaped:
			// The escaped character is consumed verbatim
			state = scanInString

		case scanOutside:
			switch ch {
			case '"':
				state = scanInString
			case '{':
				if depth == 0 {
					start = i
				}
				depth++
			case '}':
				if depth > 0 {
					depth--
					if depth == 0 {
						return text[start : i+1], nil
					}
				}
			}
		}
	}

	if start == -1 {
		return "", &keyfind.MalformedOutputError{Reason: "no '{' found in model output"}
	}

	return "", &keyfind.MalformedOutputError{Reason: "found '{' but no matching '}'"}
}
