package render

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mdr/internal/config"
)

func testOptions(t *testing.T) *renderOptions {
	t.Helper()
	for _, v := range config.EnvVars {
		t.Setenv(v, "")
	}
	return &renderOptions{
		configPath: filepath.Join(t.TempDir(), "config.yml"),
		noColor:    true,
	}
}

func run(t *testing.T, input string, opts *renderOptions) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := runRender("-", opts, strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunRender_Basic(t *testing.T) {
	out, errOut, err := run(t, "# Title\n\n>>>sig\n*Regards*\n<<<\n\nBye, <<<sig>>>\n", testOptions(t))
	require.NoError(t, err)
	assert.Empty(t, errOut)
	assert.Equal(t, "<h1>Title</h1>\n<p>Bye, <em>Regards</em></p>\n", out)
}

func TestRunRender_FlagsOverrideConfig(t *testing.T) {
	opts := testOptions(t)
	cfg := &config.Config{HeadingIDs: false, EscapeHTML: false}
	require.NoError(t, cfg.Save(opts.configPath))

	yes := true
	opts.headingIDs = &yes
	opts.escapeHTML = &yes

	out, _, err := run(t, "# Hello World\n\n<b>raw</b>\n", opts)
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="hello-world">Hello World</h1>`)
	assert.Contains(t, out, "&lt;b&gt;raw&lt;/b&gt;")
}

func TestRunRender_FrontMatterSettings(t *testing.T) {
	input := "---\nrecheck_undefined_references: true\nmacro_index: true\n---\nSee <<<later>>>.\n\n>>>later\nL\n<<<\n"

	out, _, err := run(t, input, testOptions(t))
	require.NoError(t, err)
	assert.Equal(t, "<p>See L.</p>\n<ol class=\"macro-index\">\n<li value=\"1\">later</li>\n</ol>\n", out)
}

func TestRunRender_WarningsAndStrict(t *testing.T) {
	input := ">>>open\nnever closed\n"

	out, errOut, err := run(t, input, testOptions(t))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, `<stdin>: macro definition "open" at offset 0 is not terminated`)

	opts := testOptions(t)
	opts.strict = true
	_, _, err = run(t, input, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 parse warning(s)")
}

func TestRunRender_InvalidSettings(t *testing.T) {
	opts := testOptions(t)
	policy := "first-wins"
	opts.claimPolicy = &policy

	_, _, err := run(t, "x\n", opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}

func TestRunRender_Standalone(t *testing.T) {
	opts := testOptions(t)
	opts.standalone = true

	out, _, err := run(t, "---\ntitle: A & B\n---\nbody\n", opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>A &amp; B</title>")
	assert.Contains(t, out, "<body>\n<p>body</p>\n</body>\n</html>\n")
}

func TestRunRender_OutFile(t *testing.T) {
	opts := testOptions(t)
	opts.out = filepath.Join(t.TempDir(), "out.html")

	stdout, _, err := run(t, "text\n", opts)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(opts.out)
	require.NoError(t, err)
	assert.Equal(t, "<p>text</p>\n", string(data))
}

type failingCloser struct {
	bytes.Buffer
}

func (f *failingCloser) Close() error { return errors.New("disk full") }

func TestRunRender_OutFileCloseError(t *testing.T) {
	var written failingCloser
	orig := createOutput
	createOutput = func(string) (io.WriteCloser, error) { return &written, nil }
	t.Cleanup(func() { createOutput = orig })

	opts := testOptions(t)
	opts.out = "out.html"

	_, _, err := run(t, "text\n", opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write output file: disk full")
	assert.Equal(t, "<p>text</p>\n", written.String())
}

func TestRunRender_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runRender(filepath.Join(t.TempDir(), "nope.md"), testOptions(t), nil, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestNewCmdRender_Flags(t *testing.T) {
	cmd := NewCmdRender()
	for _, name := range []string{"out", "standalone", "strict", "escape-html", "heading-ids", "source-wrap", "index", "recheck", "indent", "claim-policy"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}
