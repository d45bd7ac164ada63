package utils

import (
	"encoding/json"
	"sort"
	"strings"
)

// MaxUnwrapDepth caps how many times a payload is re-decoded.
const MaxUnwrapDepth = 10

// wrapperKeys are tried, in order, before falling back to the first array property.
var wrapperKeys = []string{"data", "Data", "d"}

// SanitizeJSON cleans raw AI output to extract valid JSON
// It removes Markdown code blocks (```json ... ```) and whitespace
func SanitizeJSON(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}

	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}

// Unwrap decodes raw until the result is no longer a JSON-encoded string.
// The upstream API serialises some payloads several times over, so a body may
// be a string containing a string containing the real object.
func Unwrap(raw []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return UnwrapValue(v), nil
}

// UnwrapValue keeps decoding while v is a string that parses as JSON, up to
// MaxUnwrapDepth attempts. A string that is not JSON is returned unchanged.
func UnwrapValue(v interface{}) interface{} {
	for i := 0; i < MaxUnwrapDepth; i++ {
		s, ok := v.(string)
		if !ok {
			return v
		}
		var next interface{}
		if err := json.Unmarshal([]byte(s), &next); err != nil {
			return v
		}
		v = next
	}
	return v
}

// ExtractList finds the record list inside an unwrapped payload.
// Arrays are returned as-is; objects are searched for data/Data/d and then for
// the first array-valued property in key order. Anything else yields nil.
func ExtractList(v interface{}) []interface{} {
	v = UnwrapValue(v)
	switch t := v.(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			if inner, ok := t[key]; ok && inner != nil {
				if list := ExtractList(inner); list != nil {
					return list
				}
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if list, ok := UnwrapValue(t[k]).([]interface{}); ok {
				return list
			}
		}
	}
	return nil
}

// ExtractObject returns the record object inside an unwrapped payload,
// descending through data/Data/d wrappers when they hold an object.
func ExtractObject(v interface{}) map[string]interface{} {
	v = UnwrapValue(v)
	switch t := v.(type) {
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			if inner, ok := UnwrapValue(t[key]).(map[string]interface{}); ok {
				return ExtractObject(inner)
			}
		}
		return t
	case []interface{}:
		if len(t) > 0 {
			if m, ok := UnwrapValue(t[0]).(map[string]interface{}); ok {
				return m
			}
		}
	}
	return nil
}

// DecodeList unwraps raw, extracts the record list and decodes it into out
// (a pointer to a slice).
func DecodeList(raw []byte, out interface{}) error {
	v, err := Unwrap(raw)
	if err != nil {
		return err
	}
	list := ExtractList(v)
	if list == nil {
		list = []interface{}{}
	}
	for i := range list {
		list[i] = UnwrapValue(list[i])
	}
	return remarshal(list, out)
}

// DecodeObject unwraps raw, extracts the record object and decodes it into out.
// A list without an object row leaves out untouched.
func DecodeObject(raw []byte, out interface{}) error {
	v, err := Unwrap(raw)
	if err != nil {
		return err
	}
	obj := ExtractObject(v)
	if obj == nil {
		if _, isList := UnwrapValue(v).([]interface{}); isList {
			// No record; out keeps its zero value
			return nil
		}
		return remarshal(v, out)
	}
	return remarshal(obj, out)
}

func remarshal(v interface{}, out interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
