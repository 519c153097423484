package importcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wrapped = `<h2>Notes</h2>
<p>Hi <span data-macro="sig" data-source-pos="20-29">Regards</span></p>`

func TestRunImport(t *testing.T) {
	tests := []struct {
		name     string
		opts     importOptions
		expected string
	}{
		{
			name:     "expanded text kept",
			opts:     importOptions{},
			expected: "## Notes\n\nHi Regards\n",
		},
		{
			name:     "macro references restored",
			opts:     importOptions{keepMacros: true},
			expected: "## Notes\n\nHi <<<sig>>>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runImport("-", &tt.opts, strings.NewReader(wrapped), &out)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestRunImport_File(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(in, []byte("<p><strong>bold</strong></p>"), 0644))

	opts := &importOptions{out: filepath.Join(dir, "page.md")}
	var stdout bytes.Buffer
	require.NoError(t, runImport(in, opts, nil, &stdout))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(opts.out)
	require.NoError(t, err)
	assert.Equal(t, "**bold**\n", string(data))
}

func TestRunImport_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := runImport(filepath.Join(t.TempDir(), "missing.html"), &importOptions{}, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
