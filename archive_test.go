package sindri

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCircuitFiles(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sindri.json"), []byte(`{"name":"c","circuit_type":"gnark"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.nr"), []byte("fn main() {}"), 0o644))
}

func tarEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer gz.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = body
	}
	return entries
}

func TestPackageCircuitDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "multiplier2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeCircuitFiles(t, dir)

	filename, contents, err := packageCircuit(dir)
	require.NoError(t, err)
	assert.Equal(t, "multiplier2.tar.gz", filename)

	entries := tarEntries(t, contents)
	assert.Contains(t, entries, "multiplier2/sindri.json")
	assert.Contains(t, entries, "multiplier2/src/main.nr")
	assert.Equal(t, "fn main() {}", string(entries["multiplier2/src/main.nr"]))
}

func TestPackageCircuitExistingArchive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "multiplier2")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeCircuitFiles(t, dir)

	_, packaged, err := packageCircuit(dir)
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "circuit.tar.gz")
	require.NoError(t, os.WriteFile(archivePath, packaged, 0o644))

	filename, contents, err := packageCircuit(archivePath)
	require.NoError(t, err)
	assert.Equal(t, "circuit.tar.gz", filename)
	assert.Equal(t, packaged, contents, "existing archives must be uploaded as-is")
}

func TestPackageCircuitMissingPath(t *testing.T) {
	_, _, err := packageCircuit(filepath.Join(t.TempDir(), "missing"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "does not exist")
}

func TestPackageCircuitRejectsLooseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.nr")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0o644))

	_, _, err := packageCircuit(path)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
