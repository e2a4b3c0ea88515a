package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelOutput_RepairsStrayBackslash(t *testing.T) {
	raw := "```json\n{\"a\": \"back\\slash\"}\n```"

	v, err := ParseModelOutput(raw)
	require.NoError(t, err)

	obj, ok := v.(map[string]any)
	require.True(t, ok, "expected object, got %T", v)
	assert.Equal(t, `back\slash`, obj["a"])
}

func TestParseModelOutput_NotJSON(t *testing.T) {
	_, err := ParseModelOutput("not json at all")
	require.Error(t, err)

	var malformed *MalformedContentError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "not json at all", malformed.Text)
	assert.NotNil(t, malformed.Err)
}

func TestParseModelOutput_Fences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", `{"ok": true}`},
		{"json fence", "```json\n{\"ok\": true}\n```"},
		{"bare fence", "```\n{\"ok\": true}\n```"},
		{"upper-case tag", "```JSON\n{\"ok\": true}```"},
		{"surrounding whitespace", "\n\n  {\"ok\": true}  \n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseModelOutput(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"ok": true}, v)
		})
	}
}

func TestEscapeStrayBackslashes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"stray", `"\alpha"`, `"\\alpha"`},
		{"valid newline kept", `"a\nb"`, `"a\nb"`},
		{"escaped quote kept", `"say \"hi\""`, `"say \"hi\""`},
		{"escaped backslash kept", `"C:\\dir"`, `"C:\\dir"`},
		{"escaped backslash then stray", `"\\\frac"`, `"\\\frac"`},
		{"unicode kept", `"\u00e9"`, `"\u00e9"`},
		{"short unicode escaped", `"\u12"`, `"\\u12"`},
		{"latex", `"$\sum_{i} x$"`, `"$\\sum_{i} x$"`},
		{"trailing backslash", `abc\`, `abc\\`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, escapeStrayBackslashes(tc.in))
		})
	}
}

func TestDecodeModelOutput_TypedTarget(t *testing.T) {
	var out struct {
		Answer string `json:"answer"`
	}
	require.NoError(t, DecodeModelOutput("```json\n{\"answer\": \"use \\d+ for digits\"}\n```", &out))
	assert.Equal(t, `use \d+ for digits`, out.Answer)
}

func TestDecodeModelOutput_UnrepairableKeepsFirstError(t *testing.T) {
	var out map[string]any
	err := DecodeModelOutput(`{"a": "x\q", }`, &out)

	var malformed *MalformedContentError
	require.True(t, errors.As(err, &malformed))
	assert.Contains(t, malformed.Error(), "invalid JSON response from model")
}
