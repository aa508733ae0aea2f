package canon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{
		"total":   20,
		"design":  "A",
		"size":    "S",
		"arrival": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"arrival":3,"design":"A","size":"S","total":20}`, string(got))
}

func TestMarshalUTF16KeyOrder(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00 in UTF-16, which sorts
	// before U+FF61. Plain UTF-8 byte comparison gives the opposite order.
	got, err := Marshal(map[string]any{
		"\U00010000": 1,
		"｡":     2,
	})
	require.NoError(t, err)

	s := string(got)
	assert.Less(t, strings.Index(s, "\U00010000"), strings.Index(s, "｡"))
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	got, err := Marshal("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(got))
}

func TestMarshalNFCNormalization(t *testing.T) {
	composed, err := Marshal("rosé")
	require.NoError(t, err)

	decomposed, err := Marshal("rosé")
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed, "NFC must unify equivalent strings")
}

func TestMarshalLineSeparatorsStayLiteral(t *testing.T) {
	got, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))

	// A literal backslash followed by the text "u2028" must stay escaped.
	got, err = Marshal(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got))
}

func TestMarshalIntegers(t *testing.T) {
	got, err := Marshal(map[string]any{
		"a": int(1),
		"b": int64(2),
		"c": uint16(3),
		"d": uint32(4),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3,"d":4}`, string(got))
}

func TestMarshalNested(t *testing.T) {
	got, err := Marshal(map[string]any{
		"trace":   []string{"+aS", "=AS1a"},
		"species": map[string]any{"b": 2, "a": 1},
		"ok":      true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true,"species":{"a":1,"b":2},"trace":["+aS","=AS1a"]}`, string(got))
}

func TestMarshalRejectsFloats(t *testing.T) {
	_, err := Marshal(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")

	_, err = Marshal(map[string]any{"x": float64(1)})
	require.Error(t, err)
}

func TestMarshalRejectsNull(t *testing.T) {
	_, err := Marshal(nil)
	require.Error(t, err)

	_, err = Marshal([]any{"a", nil})
	require.Error(t, err)
}

func TestMarshalRejectsUnsupportedTypes(t *testing.T) {
	_, err := Marshal(struct{ X int }{1})
	require.Error(t, err)
}
