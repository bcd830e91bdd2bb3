package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kestr-dev/kestr/internal/query"
)

func TestResultsPlainTextLists(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false)
	err := w.Results([]query.Result{{Type: "keyword", Content: "hit", Lines: [2]int{1, 2}}})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "keyword")
	require.Contains(t, buf.String(), "hit")
}

func TestResultsJSONEncodesArray(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, true)
	err := w.Results([]query.Result{{Type: "semantic", Content: "x", Lines: [2]int{1, 1}}})
	require.NoError(t, err)

	var out []query.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "semantic", out[0].Type)
}

func TestResultsPlainTextEmptyList(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false)
	require.NoError(t, w.Results(nil))
	require.Contains(t, buf.String(), "no results")
}

func TestNonFileWriterNeverUsesColor(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf, false)
	require.False(t, w.useColor)
}
