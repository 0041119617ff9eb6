package assertions

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/itspec/packages/snapshot"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	return strings.TrimPrefix(bracketIndex.ReplaceAllString(path, ".$1"), ".")
}

// document returns doc as JSON bytes. Strings and byte slices are taken as
// JSON text; anything else is marshaled.
func document(doc any) ([]byte, error) {
	switch v := doc.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

func lookup(doc any, path string) gjson.Result {
	data, err := document(doc)
	if err != nil {
		fail(fmt.Sprintf("cannot encode document as JSON: %v", err), nil, doc)
	}
	if !gjson.ValidBytes(data) {
		fail("document is not valid JSON", nil, string(data))
	}
	return gjson.GetBytes(data, convertBracketNotation(path))
}

// JSONPath asserts that the value at path in doc equals expected.
func (h *Handle) JSONPath(doc any, path string, expected any) bool {
	res := lookup(doc, path)
	if !res.Exists() {
		fail(fmt.Sprintf("expected %s to exist", path), expected, nil)
	}
	actual := res.Value()
	if !snapshot.Equal(actual, expected) {
		fail(fmt.Sprintf("expected %s to equal %v, got %v", path, expected, actual), expected, actual)
	}
	return true
}

// JSONHas asserts that path exists in doc.
func (h *Handle) JSONHas(doc any, path string) bool {
	if !lookup(doc, path).Exists() {
		fail(fmt.Sprintf("expected %s to exist", path), nil, nil)
	}
	return true
}

// JSONType asserts the JSON type at path: null, boolean, number, string,
// array or object.
func (h *Handle) JSONType(doc any, path, expected string) bool {
	actual := jsonType(lookup(doc, path).Value())
	if actual != expected {
		fail(fmt.Sprintf("expected %s to be of type %s, got %s", path, expected, actual), expected, actual)
	}
	return true
}

// JSONLen asserts the length of the string, array or object at path.
func (h *Handle) JSONLen(doc any, path string, expected int) bool {
	v := lookup(doc, path).Value()
	actual := computeLength(v)
	if actual == -1 {
		fail(fmt.Sprintf("cannot get length of %s (%s)", path, jsonType(v)), expected, v)
	}
	if actual != expected {
		fail(fmt.Sprintf("expected %s to have length %d, got %d", path, expected, actual), expected, actual)
	}
	return true
}

// MatchesSchema validates doc against a JSON Schema, given either inline as
// JSON text or as a path to a schema file.
func (h *Handle) MatchesSchema(doc any, schema string) bool {
	data, err := document(doc)
	if err != nil {
		fail(fmt.Sprintf("cannot encode document as JSON: %v", err), nil, doc)
	}

	var schemaLoader gojsonschema.JSONLoader
	if trimmed := strings.TrimSpace(schema); strings.HasPrefix(trimmed, "{") {
		schemaLoader = gojsonschema.NewStringLoader(trimmed)
	} else {
		path := schema
		if !filepath.IsAbs(path) && h.baseDir != "" {
			path = filepath.Join(h.baseDir, path)
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			fail(fmt.Sprintf("failed to read schema file: %v", err), nil, nil)
		}
		schemaLoader = gojsonschema.NewBytesLoader(raw)
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		fail(fmt.Sprintf("schema validation error: %v", err), nil, nil)
	}
	if result.Valid() {
		return true
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	fail("schema validation failed: "+strings.Join(problems, "; "), nil, string(data))
	return false
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

// computeLength returns the length of a value, or -1 if length cannot be computed
func computeLength(v any) int {
	switch v := v.(type) {
	case string:
		return len(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	}
	return -1
}
