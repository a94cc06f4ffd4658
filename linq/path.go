package linq

import (
	"net/url"
	"regexp"
	"strings"
)

var pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)

// interpolatePath replaces every {name} token in template with the escaped
// string form of params[name]. The first token without a matching entry
// fails the whole call with a ValidationError.
func interpolatePath(template string, params map[string]any) (string, error) {
	var missing string
	out := pathParamPattern.ReplaceAllStringFunc(template, func(token string) string {
		if missing != "" {
			return token
		}
		name := token[1 : len(token)-1]
		v, ok := params[name]
		if !ok || isNil(v) {
			missing = name
			return token
		}
		return escapePathSegment(formatScalar(v))
	})
	if missing != "" {
		return "", &ValidationError{
			Field:   missing,
			Message: ErrMissingPathParam.Error(),
			Err:     ErrMissingPathParam,
		}
	}
	return out, nil
}

// escapePathSegment percent-encodes everything outside the unreserved set,
// including '/', so a parameter can never introduce a new path segment.
func escapePathSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
