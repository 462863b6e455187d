package steam

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func manifest(appID, name, installDir string) string {
	return `"AppState"
{
	"appid"		"` + appID + `"
	"Universe"		"1"
	"name"		"` + name + `"
	"StateFlags"		"4"
	"installdir"		"` + installDir + `"
}`
}
