package init

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mdr/internal/config"
)

func TestRunInit_Defaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mdr", "config.yml")

	var out bytes.Buffer
	require.NoError(t, runInit(&initOptions{configPath: configPath, defaults: true}, &out))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Contains(t, out.String(), "Configuration saved to "+configPath)
}

func TestRunInit_DefaultsRefusesOverwrite(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{HeadingIDs: true}).Save(configPath))

	var out bytes.Buffer
	err := runInit(&initOptions{configPath: configPath, defaults: true}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use --force to overwrite")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.True(t, cfg.HeadingIDs)
}

func TestRunInit_DefaultsForce(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, (&config.Config{HeadingIDs: true}).Save(configPath))

	var out bytes.Buffer
	require.NoError(t, runInit(&initOptions{configPath: configPath, defaults: true, force: true}, &out))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.False(t, cfg.HeadingIDs)
	assert.Equal(t, "strict", cfg.ClaimPolicy)
}

func TestDefaultConfig_Valid(t *testing.T) {
	assert.NoError(t, defaultConfig().Validate())
}

func TestValidateAttribute(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "empty", input: "", wantErr: false},
		{name: "data attribute", input: "data-source-pos", wantErr: false},
		{name: "namespaced", input: "x:pos", wantErr: false},
		{name: "leading digit", input: "1pos", wantErr: true},
		{name: "space", input: "data pos", wantErr: true},
		{name: "quote", input: `data"pos`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAttribute(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildForm(t *testing.T) {
	cfg := defaultConfig()
	assert.NotNil(t, buildForm(cfg))
}

func TestConfigExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	assert.False(t, configExists(path))

	require.NoError(t, defaultConfig().Save(path))
	assert.True(t, configExists(path))
}

func TestNewCmdInit_Flags(t *testing.T) {
	cmd := NewCmdInit()
	assert.NotNil(t, cmd.Flags().Lookup("defaults"))
	assert.NotNil(t, cmd.Flags().Lookup("force"))
}
