package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// fieldMap is a decoded upstream record. Upstream casing drifts between
// endpoints, so every getter takes a fallback chain and the first present,
// non-null key wins.
type fieldMap map[string]interface{}

func decodeFields(data []byte) (fieldMap, error) {
	var m fieldMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = fieldMap{}
	}
	return m, nil
}

func (m fieldMap) lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func (m fieldMap) str(keys ...string) string {
	v, ok := m.lookup(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func (m fieldMap) floatPtr(keys ...string) *float64 {
	v, ok := m.lookup(keys...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(t, "%")), 64)
		if err != nil {
			return nil
		}
		return &f
	case bool:
		if t {
			f := 1.0
			return &f
		}
		f := 0.0
		return &f
	}
	return nil
}

func (m fieldMap) float(keys ...string) float64 {
	if f := m.floatPtr(keys...); f != nil {
		return *f
	}
	return 0
}

func (m fieldMap) int64(keys ...string) int64 {
	return int64(m.float(keys...))
}

func (m fieldMap) boolean(keys ...string) bool {
	v, ok := m.lookup(keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return t == "1" || strings.EqualFold(t, "yes")
		}
		return b
	}
	return false
}

func (m fieldMap) timePtr(keys ...string) *time.Time {
	s := m.str(keys...)
	if s == "" {
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil
	}
	return &t
}

func (m fieldMap) time(keys ...string) time.Time {
	if t := m.timePtr(keys...); t != nil {
		return *t
	}
	return time.Time{}
}

// raw returns the value as JSON. Strings are kept as JSON strings so callers
// can unwrap multiply-encoded blobs later.
func (m fieldMap) raw(keys ...string) json.RawMessage {
	v, ok := m.lookup(keys...)
	if !ok {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

var aspNetDate = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-Jan-2006 15:04",
	"02-Jan-2006",
	"02/01/2006",
	"2006-01-02",
}

// ParseTime accepts the date formats seen across upstream endpoints,
// including the ASP.NET /Date(ms)/ form.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if m := aspNetDate.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.UnixMilli(ms).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}
