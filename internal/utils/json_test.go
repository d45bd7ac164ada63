package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeTimes JSON-encodes v, then re-encodes the result as a string n-1 more times.
func encodeTimes(t *testing.T, v interface{}, n int) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		data, err = json.Marshal(string(data))
		require.NoError(t, err)
	}
	return data
}

func TestUnwrapNestedEncodings(t *testing.T) {
	payload := map[string]interface{}{"BookingNo": "Q-101", "Margin": 4.5}

	for n := 1; n <= MaxUnwrapDepth; n++ {
		raw := encodeTimes(t, payload, n)
		got, err := Unwrap(raw)
		require.NoError(t, err, "depth %d", n)

		obj, ok := got.(map[string]interface{})
		require.True(t, ok, "depth %d: expected object, got %T", n, got)
		assert.Equal(t, "Q-101", obj["BookingNo"])
	}
}

func TestUnwrapNonJSONStringUnchanged(t *testing.T) {
	raw, _ := json.Marshal("Rate updated successfully")
	got, err := Unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t, "Rate updated successfully", got)
}

func TestUnwrapInvalidBody(t *testing.T) {
	_, err := Unwrap([]byte("<html>gateway timeout</html>"))
	assert.Error(t, err)
}

func TestExtractListWrapperKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"a":1},{"a":2}]`, 2},
		{"data key", `{"success":true,"data":[{"a":1}]}`, 1},
		{"Data key", `{"Data":[{"a":1},{"a":2},{"a":3}]}`, 3},
		{"d key", `{"d":"[{\"a\":1}]"}`, 1},
		{"nested wrapper", `{"data":{"Data":[{"a":1},{"a":2}]}}`, 2},
		{"first array property", `{"count":2,"rows":[{"a":1},{"a":2}]}`, 2},
		{"no list", `{"message":"nothing"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Unwrap([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, ExtractList(v), tt.want)
		})
	}
}

func TestExtractListPrefersWrapperOverOtherArrays(t *testing.T) {
	v, err := Unwrap([]byte(`{"alpha":[1,2,3],"data":[{"id":7}]}`))
	require.NoError(t, err)
	list := ExtractList(v)
	require.Len(t, list, 1)
}

func TestDecodeListDoubleEncodedRows(t *testing.T) {
	inner, _ := json.Marshal([]map[string]interface{}{{"id": 1}, {"id": 2}})
	body := encodeTimes(t, map[string]interface{}{"data": string(inner)}, 2)

	var out []struct {
		ID int `json:"id"`
	}
	require.NoError(t, DecodeList(body, &out))
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[1].ID)
}

func TestDecodeObject(t *testing.T) {
	body := encodeTimes(t, map[string]interface{}{"Data": map[string]interface{}{"EnquiryNo": "ENQ-42"}}, 3)

	var out struct {
		EnquiryNo string `json:"EnquiryNo"`
	}
	require.NoError(t, DecodeObject(body, &out))
	assert.Equal(t, "ENQ-42", out.EnquiryNo)
}

func TestDecodeObjectEmptyList(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"bare list", []byte(`[]`)},
		{"string encoded", encodeTimes(t, []interface{}{}, 2)},
		{"list of scalars", []byte(`[1,2]`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				DraftID int64 `json:"draftId"`
			}
			require.NoError(t, DecodeObject(tt.body, &out))
			assert.Zero(t, out.DraftID)
		})
	}
}

func TestDecodeObjectFirstRow(t *testing.T) {
	var out struct {
		DraftID int64 `json:"draftId"`
	}
	require.NoError(t, DecodeObject([]byte(`[{"draftId":12},{"draftId":13}]`), &out))
	assert.Equal(t, int64(12), out.DraftID)
}

func TestSanitizeJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, SanitizeJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, SanitizeJSON("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, SanitizeJSON("  {\"a\":1} "))
}
