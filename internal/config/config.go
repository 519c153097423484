// Package config provides configuration management for mdr.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/mdr/pkg/md"
)

// Config holds the mdr configuration.
type Config struct {
	EscapeHTML         bool   `yaml:"escape_html,omitempty"`
	SoftBreak          string `yaml:"soft_break,omitempty"`
	HeadingIDs         bool   `yaml:"heading_ids,omitempty"`
	ClaimPolicy        string `yaml:"claim_policy,omitempty"`
	RecheckReferences  bool   `yaml:"recheck_undefined_references,omitempty"`
	MacroSourceWrap    bool   `yaml:"macro_source_wrap,omitempty"`
	MacroIndex         bool   `yaml:"macro_index,omitempty"`
	Indent             int    `yaml:"indent,omitempty"`
	SourcePosAttribute string `yaml:"source_pos_attribute,omitempty"`
	OutputFormat       string `yaml:"output_format,omitempty"`
}

// Environment variables read by LoadFromEnv.
const (
	EnvEscapeHTML         = "MDR_ESCAPE_HTML"
	EnvSoftBreak          = "MDR_SOFT_BREAK"
	EnvHeadingIDs         = "MDR_HEADING_IDS"
	EnvClaimPolicy        = "MDR_CLAIM_POLICY"
	EnvRecheckReferences  = "MDR_RECHECK_REFERENCES"
	EnvMacroSourceWrap    = "MDR_MACRO_SOURCE_WRAP"
	EnvMacroIndex         = "MDR_MACRO_INDEX"
	EnvIndent             = "MDR_INDENT"
	EnvSourcePosAttribute = "MDR_SOURCE_POS_ATTRIBUTE"
)

// EnvVars lists every environment variable that can override the file.
var EnvVars = []string{
	EnvEscapeHTML, EnvSoftBreak, EnvHeadingIDs, EnvClaimPolicy, EnvRecheckReferences,
	EnvMacroSourceWrap, EnvMacroIndex, EnvIndent, EnvSourcePosAttribute,
}

// MaxIndent is the largest accepted indent width.
const MaxIndent = 8

var attributeName = regexp.MustCompile(`^[A-Za-z_:][-A-Za-z0-9_:.]*$`)

var validOutputFormats = map[string]bool{"": true, "table": true, "json": true, "plain": true}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if _, err := md.ParseClaimPolicy(c.ClaimPolicy); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Indent < 0 || c.Indent > MaxIndent {
		result = multierror.Append(result, fmt.Errorf("indent must be between 0 and %d", MaxIndent))
	}
	if c.SourcePosAttribute != "" && !attributeName.MatchString(c.SourcePosAttribute) {
		result = multierror.Append(result, fmt.Errorf("source_pos_attribute %q is not a valid attribute name", c.SourcePosAttribute))
	}
	if !validOutputFormats[c.OutputFormat] {
		result = multierror.Append(result, errors.New("output_format must be one of table, json, plain"))
	}

	return result.ErrorOrNil()
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
func (c *Config) LoadFromEnv() {
	envBool(EnvEscapeHTML, &c.EscapeHTML)
	envBool(EnvHeadingIDs, &c.HeadingIDs)
	envBool(EnvRecheckReferences, &c.RecheckReferences)
	envBool(EnvMacroSourceWrap, &c.MacroSourceWrap)
	envBool(EnvMacroIndex, &c.MacroIndex)

	if v := os.Getenv(EnvSoftBreak); v != "" {
		// Accept Go escapes so a newline or <br /> can be written on one line.
		c.SoftBreak = v
		if unquoted, err := strconv.Unquote(`"` + v + `"`); err == nil {
			c.SoftBreak = unquoted
		}
	}
	if v := os.Getenv(EnvClaimPolicy); v != "" {
		c.ClaimPolicy = v
	}
	if v := os.Getenv(EnvIndent); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn().Str("var", EnvIndent).Str("value", v).Msg("Ignoring non-numeric environment value")
		} else {
			c.Indent = n
		}
	}
	if v := os.Getenv(EnvSourcePosAttribute); v != "" {
		c.SourcePosAttribute = v
	}
}

func envBool(name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("var", name).Str("value", v).Msg("Ignoring non-boolean environment value")
		return
	}
	*dst = b
}

// ApplyFrontMatter overrides settings named in a document's front matter.
func (c *Config) ApplyFrontMatter(fm md.FrontMatter) {
	if fm.EscapeHTML != nil {
		c.EscapeHTML = *fm.EscapeHTML
	}
	if fm.SoftBreak != nil {
		c.SoftBreak = *fm.SoftBreak
	}
	if fm.RecheckMacros != nil {
		c.RecheckReferences = *fm.RecheckMacros
	}
	if fm.MacroSourceWrap != nil {
		c.MacroSourceWrap = *fm.MacroSourceWrap
	}
	if fm.MacroIndex != nil {
		c.MacroIndex = *fm.MacroIndex
	}
}

// RenderOptions converts the configuration into renderer options. Extensions
// are added by the caller.
func (c *Config) RenderOptions() ([]md.Option, error) {
	policy, err := md.ParseClaimPolicy(c.ClaimPolicy)
	if err != nil {
		return nil, err
	}

	opts := []md.Option{
		md.WithEscapeHTML(c.EscapeHTML),
		md.WithClaimPolicy(policy),
		md.WithRecheckUndefinedReferences(c.RecheckReferences),
		md.WithIndent(c.Indent),
	}
	if c.SoftBreak != "" {
		opts = append(opts, md.WithSoftBreak(c.SoftBreak))
	}
	if c.HeadingIDs {
		opts = append(opts, md.WithAttributeExtender(md.HeadingIDs))
	}
	if c.SourcePosAttribute != "" {
		opts = append(opts, md.WithSourcePosAttribute(c.SourcePosAttribute))
	}
	return opts, nil
}

// MacroOptions returns the macro extension settings.
func (c *Config) MacroOptions() md.MacroOptions {
	return md.MacroOptions{
		SourceWrap: c.MacroSourceWrap,
		Index:      c.MacroIndex,
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mdr", "config.yml")
	}

	// Fall back to ~/.config/mdr/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mdr", "config.yml")
	}

	return filepath.Join(home, ".config", "mdr", "config.yml")
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		// If file doesn't exist, start with empty config
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
