// Package extract resolves $data.<path> tokens against a decoded response
// body and formats the extracted values for display.
package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	displayLimit  = 50
	undefinedText = "undefined"
)

// Lookup walks a dot-separated path through nested maps and arrays. When an
// exact key is missing it retries with hyphens stripped from both the
// segment and the candidate keys, so kebab-case API fields stay addressable
// without hyphens.
func Lookup(root interface{}, path string) (interface{}, bool) {
	current := root
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, false
		}
		switch node := current.(type) {
		case map[string]interface{}:
			value, ok := lookupKey(node, segment)
			if !ok {
				return nil, false
			}
			current = value
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	return current, true
}

func lookupKey(node map[string]interface{}, segment string) (interface{}, bool) {
	if value, ok := node[segment]; ok {
		return value, true
	}

	stripped := strings.ReplaceAll(segment, "-", "")
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.ReplaceAll(key, "-", "") == stripped {
			return node[key], true
		}
	}
	return nil, false
}

// Format renders a value for display: long strings are cut to the first 50
// runes plus an ellipsis, absent values become the literal "undefined".
func Format(value interface{}, ok bool) string {
	if !ok {
		return undefinedText
	}
	text := render(value)
	runes := []rune(text)
	if _, isString := value.(string); isString && len(runes) > displayLimit {
		return string(runes[:displayLimit]) + "..."
	}
	return text
}

// Raw renders a value without truncation. Absent values yield an empty
// string so a failed extraction never persists the undefined marker.
func Raw(value interface{}, ok bool) string {
	if !ok {
		return ""
	}
	return render(value)
}

func render(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}

var dataPattern = regexp.MustCompile(`\$data\.([A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+)*)`)

// Apply substitutes every $data.<path> token with the formatted extraction
// result. Used for response display templates.
func Apply(template string, root interface{}) string {
	return dataPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := match[len("$data."):]
		return Format(Lookup(root, path))
	})
}

// ApplyRaw substitutes $data.<path> tokens with untruncated values.
// Used for set extraction, where captured state must stay intact.
func ApplyRaw(template string, root interface{}) string {
	return dataPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := match[len("$data."):]
		return Raw(Lookup(root, path))
	})
}
