package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecodine/ecodine/util/logging"
)

func TestNewWritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ecodine.log")
	l, err := logging.New("debug", file)
	require.NoError(t, err)

	l.Info("wallet connected")
	require.NoError(t, l.Sync())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	line := strings.TrimSpace(string(content))
	assert.Contains(t, line, `"msg":"wallet connected"`)
	assert.Contains(t, line, `"service":"ecodine"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := logging.New("loud", "")
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, logging.OrNop(nil))
}
