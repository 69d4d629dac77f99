package activity

import (
	"net/url"
	"strings"
)

// Redaction placeholders the frontend matches on.
const (
	RedactedPlaceholder  = "[已过滤]"
	TruncatedPlaceholder = "[已截断]"
)

// maxFilterDepth bounds the recursive walk; containers nested deeper collapse
// to TruncatedPlaceholder.
const maxFilterDepth = 3

var sensitiveWords = []string{
	"password", "token", "secret", "key", "authorization",
	"cookie", "session", "auth", "credential",
}

// FilterSensitive walks a decoded JSON structure and replaces the value of
// any key whose lowercased name contains a sensitive substring with the
// redaction placeholder. The walk is bounded to maxFilterDepth levels.
func FilterSensitive(value any) any {
	return sanitize(value, 0)
}

// FilterQuery converts URL query values into a filterable map and redacts it.
func FilterQuery(values url.Values) any {
	if len(values) == 0 {
		return nil
	}
	query := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			query[key] = vals[0]
			continue
		}
		items := make([]any, len(vals))
		for i, v := range vals {
			items[i] = v
		}
		query[key] = items
	}
	return sanitize(query, 0)
}

func sanitize(value any, depth int) any {
	switch val := value.(type) {
	case map[string]any:
		if depth >= maxFilterDepth {
			return TruncatedPlaceholder
		}
		out := make(map[string]any, len(val))
		for key, inner := range val {
			if isSensitiveKey(key) {
				out[key] = RedactedPlaceholder
				continue
			}
			out[key] = sanitize(inner, depth+1)
		}
		return out
	case []any:
		if depth >= maxFilterDepth {
			return TruncatedPlaceholder
		}
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = sanitize(inner, depth+1)
		}
		return out
	default:
		return val
	}
}

func isSensitiveKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, word := range sensitiveWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
