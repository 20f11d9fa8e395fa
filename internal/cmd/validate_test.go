package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllCatalogs(t *testing.T) {
	t.Setenv("SCORECARD_HOME", t.TempDir())
	var out bytes.Buffer

	require.NoError(t, validateCatalogs("", "", &out))

	output := out.String()
	assert.Contains(t, output, "✓ nip3 v3: Neural Imprint Patterns 3.0")
	assert.Contains(t, output, "✓ nip2")
	assert.Contains(t, output, "✓ nipp1118")
	assert.Contains(t, output, "✓ nipp710")
	assert.Contains(t, output, "dual rater")
	assert.Contains(t, output, "✓ 4 catalog(s) valid!")
}

func TestValidateSingleVariant(t *testing.T) {
	t.Setenv("SCORECARD_HOME", t.TempDir())
	var out bytes.Buffer

	require.NoError(t, validateCatalogs("", "nipp1118", &out))

	output := out.String()
	assert.Contains(t, output, "✓ nipp1118")
	assert.Contains(t, output, "50 questions")
	assert.NotContains(t, output, "nip3 v3")
	assert.Contains(t, output, "✓ 1 catalog(s) valid!")
}

func TestValidateUnknownVariant(t *testing.T) {
	t.Setenv("SCORECARD_HOME", t.TempDir())
	var out bytes.Buffer

	err := validateCatalogs("", "nip99", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown assessment variant")
}

// writeBrokenOverlay writes a home config whose catalog_dir points at an
// overlay with a threshold table that does not cover the floor. Returns the
// config path.
func writeBrokenOverlay(t *testing.T, home string) string {
	t.Helper()

	overlayDir := filepath.Join(home, "catalogs")
	require.NoError(t, os.MkdirAll(overlayDir, 0755))
	// Threshold table does not cover the floor.
	broken := `variant: custom
version: 1
title: Broken
aggregation: sum
scale_min: 0
scale_max: 3
thresholds:
  key: percentage
  tiers:
  - min: 50
    tier: High
patterns:
- code: P1
  name: One
questions:
- id: q1
  pattern: P1
  text: t
`
	require.NoError(t, os.WriteFile(filepath.Join(overlayDir, "custom.yaml"), []byte(broken), 0644))

	configPath := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("catalog_dir: "+overlayDir+"\n"), 0644))
	return configPath
}

func TestValidateRejectsBrokenOverlay(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SCORECARD_HOME", home)
	configPath := writeBrokenOverlay(t, home)

	var out bytes.Buffer
	err := validateCatalogs(configPath, "", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclassified")
	assert.Contains(t, out.String(), "✗ Catalog validation failed")
}

func TestValidateReadsHomeConfigWithoutFlag(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SCORECARD_HOME", home)
	writeBrokenOverlay(t, home)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"validate"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclassified")
	assert.Contains(t, out.String(), "✗ Catalog validation failed")
}
