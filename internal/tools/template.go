package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// tokenPattern matches {identifier} placeholders in URL and body templates.
var tokenPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute replaces every {key} token in template with the stringified
// argument value in a single pass over the template. Tokens with no matching
// argument are left literal. Because substitution is a single scan rather
// than sequential per-key replacement, an argument value that happens to
// contain another token's text is never re-substituted.
func Substitute(template string, args map[string]any) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[1 : len(match)-1]
		val, ok := args[key]
		if !ok {
			return match
		}
		return Stringify(val)
	})
}

// SubstituteBody walks a JSON body template and substitutes {key} tokens in
// every string leaf. Non-string leaves (numbers, booleans, nulls) and
// container structure pass through unmodified. The template itself is not
// mutated; a new structure is returned.
func SubstituteBody(template map[string]any, args map[string]any) map[string]any {
	out, _ := substituteValue(template, args).(map[string]any)
	return out
}

func substituteValue(v any, args map[string]any) any {
	switch tv := v.(type) {
	case string:
		return Substitute(tv, args)
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, inner := range tv {
			out[k] = substituteValue(inner, args)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, inner := range tv {
			out[i] = substituteValue(inner, args)
		}
		return out
	default:
		return v
	}
}

// Stringify renders an argument or response value for template insertion.
// Scalars use their natural formatting; composite values are JSON-encoded.
func Stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case float64:
		// JSON numbers decode as float64; render integers without a decimal point.
		if tv == float64(int64(tv)) {
			return fmt.Sprintf("%d", int64(tv))
		}
		return fmt.Sprintf("%g", tv)
	case bool:
		return fmt.Sprintf("%t", tv)
	case map[string]any, []any:
		b, err := json.Marshal(tv)
		if err != nil {
			return fmt.Sprintf("%v", tv)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", tv)
	}
}
