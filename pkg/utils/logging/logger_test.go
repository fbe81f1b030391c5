package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_WritesJSONFile(t *testing.T) {
	t.Chdir(t.TempDir())

	logger, err := InitLogger("test", false)
	require.NoError(t, err)

	logger.Debug("Generated week")
	_ = logger.Sync()

	files, err := filepath.Glob(filepath.Join(logsDir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"Generated week"`)
	assert.Contains(t, string(content), `"level":"debug"`)
}
