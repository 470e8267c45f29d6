// internal/render/value.go
package render

import (
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches {{key}} and {{nested.key.path}} tokens.
var placeholderPattern = regexp.MustCompile(`\{\{(\w+(?:\.\w+)*)\}\}`)

// resolvePath walks a dotted path through nested JSON objects.
// Returns nil when any segment is missing or the current node is not
// an object.
func resolvePath(data map[string]interface{}, path string) interface{} {
	var value interface{} = data
	for _, key := range strings.Split(path, ".") {
		obj, ok := value.(map[string]interface{})
		if !ok {
			return nil
		}
		value = obj[key]
	}
	return value
}

// truthy reports whether a JSON value counts as present-and-non-empty:
// nil, false, zero, empty strings and empty collections are false.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// conditionMet evaluates an element condition: the dotted path is
// resolved against the data and checked for truthiness. Unlike truthy,
// an object always passes, whatever its size.
func conditionMet(data map[string]interface{}, cond string) bool {
	value := resolvePath(data, cond)
	switch val := value.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	default:
		return true
	}
}

// stringify renders a scalar JSON value for receipt text. Numbers use
// the shortest decimal form, composites and nil become empty.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// substitute replaces every {{path}} token with the stringified value
// from data, or with nothing when the path is missing. Single pass:
// substituted values are never re-scanned for tokens.
func substitute(template string, data map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		path := token[2 : len(token)-2]
		return stringify(resolvePath(data, path))
	})
}

// getString reads a strictly-typed string field. Missing or
// non-string values yield the fallback; an explicit empty string is
// kept.
func getString(obj map[string]interface{}, key, fallback string) string {
	raw, ok := obj[key]
	if !ok {
		return fallback
	}
	if s, ok := raw.(string); ok {
		return s
	}
	return fallback
}

// getText reads a display value, trying keys in order. Strings pass
// through, numbers and booleans are stringified, anything else counts
// as absent.
func getText(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch val := obj[key].(type) {
		case string:
			return val
		case float64:
			return stringify(val)
		case bool:
			return stringify(val)
		}
	}
	return ""
}

// getNumber reads a numeric field, trying keys in order. The first
// key holding a number wins; otherwise the fallback is returned.
func getNumber(obj map[string]interface{}, fallback float64, keys ...string) float64 {
	for _, key := range keys {
		if n, ok := obj[key].(float64); ok {
			return n
		}
	}
	return fallback
}

// getToggle reads a boolean switch: missing keys keep the default,
// present keys are evaluated for truthiness.
func getToggle(obj map[string]interface{}, key string, fallback bool) bool {
	raw, ok := obj[key]
	if !ok {
		return fallback
	}
	return truthy(raw)
}

// getObject reads a nested JSON object field, or nil.
func getObject(obj map[string]interface{}, key string) map[string]interface{} {
	m, _ := obj[key].(map[string]interface{})
	return m
}

// getList reads a JSON array field, or nil.
func getList(obj map[string]interface{}, key string) []interface{} {
	l, _ := obj[key].([]interface{})
	return l
}
