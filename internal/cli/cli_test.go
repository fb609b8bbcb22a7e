package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lot66Session = `Lot66 Breda
Driver 1
01.01.2024 At 1830h

00:30.123
00:29.876
00:31.000
`

// execute runs the root command against a throwaway table and without
// the search index, capturing output.
func execute(t *testing.T, csvPath string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{
		"--no-index",
		"--config", filepath.Join(t.TempDir(), "absent.toml"),
		"--csv", csvPath,
	}, args...))
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := execute(t, filepath.Join(t.TempDir(), "laps.csv"), "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "karting version test-version-1.0.0")
}

func TestProcessCmd_RequiresFileArg(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "laps.csv"), "process")
	assert.Error(t, err)
}

func TestProcessCmd_Executes(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "session 1.txt")
	require.NoError(t, os.WriteFile(file, []byte(lot66Session), 0o644))
	csvPath := filepath.Join(dir, "laps.csv")

	out, err := execute(t, csvPath, "process", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Lot66")
	assert.Contains(t, out, "3 rows")

	// Re-processing is a no-op, not an error.
	out, err = execute(t, csvPath, "process", file)
	require.NoError(t, err)
	assert.Contains(t, out, "duplicate session")
}

func TestFolderCmd_Executes(t *testing.T) {
	root := t.TempDir()
	trackDir := filepath.Join(root, "lot66")
	require.NoError(t, os.MkdirAll(trackDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(trackDir, "session 1.txt"), []byte(lot66Session), 0o644))
	csvPath := filepath.Join(root, "laps.csv")

	out, err := execute(t, csvPath, "folder", root)
	require.NoError(t, err)
	assert.Contains(t, out, "1 processed")
	assert.Contains(t, out, "3 appended")
	assert.Contains(t, out, "3 rows updated")
}

func TestRepriceCmd_EmptyTable(t *testing.T) {
	out, err := execute(t, filepath.Join(t.TempDir(), "laps.csv"), "reprice")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to price")
}

func TestSearchCmd_RequiresIndex(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "laps.csv"), "search", "--driver", "max")
	assert.Error(t, err)
}
