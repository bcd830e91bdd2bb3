package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsGlobAnchoring(t *testing.T) {
	m := New()
	require.NoError(t, m.AddDefaults())

	require.True(t, m.Check("foo.o"))
	require.False(t, m.Check("foo.ocaml"))
	require.True(t, m.Check(".git"))
	require.False(t, m.Check("git"))
}

func TestCheckMatchesBasenameOnly(t *testing.T) {
	m := New()
	require.NoError(t, m.Add("*.log"))

	require.True(t, m.Check("/var/log/app.log"))
	require.False(t, m.Check("/var/log/app.logs"))
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".kestr_ignore")
	content := "# comment\n\n*.tmp\n  *.bak  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m := New()
	require.NoError(t, m.Load(path))

	require.True(t, m.Check("a.tmp"))
	require.True(t, m.Check("a.bak"))
	require.False(t, m.Check("a.go"))
}

func TestLiteralDot(t *testing.T) {
	m := New()
	require.NoError(t, m.Add("a.b"))

	require.True(t, m.Check("a.b"))
	require.False(t, m.Check("aXb"))
}
