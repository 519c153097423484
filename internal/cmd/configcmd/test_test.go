package configcmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mdr/internal/config"
)

func TestRunTest_Success(t *testing.T) {
	var out bytes.Buffer
	err := runTest("", true, &out, &config.Config{HeadingIDs: true})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "✓ Settings valid")
	assert.Contains(t, out.String(), "✓ Sample rendered")
	assert.Contains(t, out.String(), `<h1 id="check">Check</h1>`)
	assert.Contains(t, out.String(), "<p>Hello <em>world</em></p>")
}

func TestRunTest_InvalidSettings(t *testing.T) {
	var out bytes.Buffer
	err := runTest("", true, &out, &config.Config{ClaimPolicy: "sometimes", Indent: 12})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "invalid claim policy")
	assert.Contains(t, err.Error(), "indent must be between 0 and 8")
	assert.Contains(t, out.String(), "✗ Invalid configuration")
}

func TestRunTest_FromFile(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{MacroSourceWrap: true}).Save(configPath))

	var out bytes.Buffer
	require.NoError(t, runTest(configPath, true, &out))
	assert.Contains(t, out.String(), `data-macro="greeting"`)
}
