package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name" env:"SAMPLE_NAME"`
	Port  int    `yaml:"port" env:"SAMPLE_PORT"`
	Inner struct {
		Dir string `yaml:"dir" env:"DIR"`
	} `yaml:"inner" envPrefix:"SAMPLE_INNER_"`
}

type validated struct {
	Port int `yaml:"port"`
}

func (v *validated) Validate() error {
	if v.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_HOST_DIR", "/srv/site")
	p := writeConfig(t, "name: blog\nport: 9000\ninner:\n  dir: ${SAMPLE_HOST_DIR}/content\n")

	var cfg sample
	require.NoError(t, Load(p, &cfg))
	assert.Equal(t, "blog", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/site/content", cfg.Inner.Dir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "7000")
	t.Setenv("SAMPLE_INNER_DIR", "override")
	p := writeConfig(t, "name: blog\nport: 9000\ninner:\n  dir: file\n")

	var cfg sample
	require.NoError(t, Load(p, &cfg))
	assert.Equal(t, "blog", cfg.Name)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "override", cfg.Inner.Dir)
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg sample
	err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := writeConfig(t, "name: [unclosed\n")
	var cfg sample
	assert.Error(t, Load(p, &cfg))
}

func TestLoad_Validates(t *testing.T) {
	p := writeConfig(t, "port: 0\n")
	var cfg validated
	err := Load(p, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be positive")
}

func TestLoadOptional_KeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	cfg := sample{Name: "default", Port: 8080}
	require.NoError(t, LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg))
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadOptional_ReadsExistingFile(t *testing.T) {
	p := writeConfig(t, "port: 1234\n")
	cfg := sample{Port: 8080}
	require.NoError(t, LoadOptional(p, &cfg))
	assert.Equal(t, 1234, cfg.Port)
}
