package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCheck_ValidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "valid.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(uplinkConfig), 0644))

	var out bytes.Buffer
	require.NoError(t, RunCheck(&out, configPath, false))
	assert.Contains(t, out.String(), "Connections: 1")
}

func TestRunCheck_Verbose(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "valid.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(uplinkConfig), 0644))

	var out bytes.Buffer
	require.NoError(t, RunCheck(&out, configPath, true))
	assert.Contains(t, out.String(), `connection "uplink" (interface eth0)`)
	assert.Contains(t, out.String(), "192.0.2.53")
}

func TestRunCheck_InvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.hcl")
	invalidConfig := `
connection "uplink" {
    # Missing closing brace
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidConfig), 0644))

	var out bytes.Buffer
	assert.Error(t, RunCheck(&out, configPath, false))
}

func TestRunCheck_SemanticErrors(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "semantic.hcl")
	badConfig := `
connection "uplink" {
  interface = "eth0"
  ipv4 {
    gateway = "2001:db8::1"
  }
}
`
	require.NoError(t, os.WriteFile(configPath, []byte(badConfig), 0644))

	var out bytes.Buffer
	assert.ErrorContains(t, RunCheck(&out, configPath, false), "not an ipv4 address")
}

func TestRunCheck_NoFile(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, RunCheck(&out, "", false), "usage")
}
