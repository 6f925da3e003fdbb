package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string) // setup before running
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:    "init empty directory",
			args:    []string{},
			wantErr: false,
			wantFiles: []string{
				"rosterdq.yaml",
				".gitignore",
				"data",
				"data/roster.csv",
			},
		},
		{
			name:    "init named directory",
			args:    []string{"clinic"},
			wantErr: false,
			wantFiles: []string{
				"clinic/rosterdq.yaml",
				"clinic/data/roster.csv",
			},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "rosterdq.yaml"), []byte("existing"), 0600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "rosterdq.yaml"), []byte("existing"), 0600)
			},
			args:    []string{"--force"},
			wantErr: false,
			wantFiles: []string{
				"rosterdq.yaml",
				"data/roster.csv",
			},
		},
		{
			name:    "init with example data",
			args:    []string{"--example"},
			wantErr: false,
			wantFiles: []string{
				"rosterdq.yaml",
				"data/roster.csv",
				"data/ca_licenses.csv",
				"data/ny_licenses.csv",
				"data/npi_registry.csv",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temp directory and change to it
			tmpDir := t.TempDir()
			oldWd, _ := os.Getwd()
			require.NoError(t, os.Chdir(tmpDir))
			defer func() { _ = os.Chdir(oldWd) }()

			// Run setup if provided
			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			// Check expected files exist
			for _, f := range tt.wantFiles {
				path := filepath.Join(tmpDir, f)
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "expected file/dir %q to exist", f)
			}
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
	assert.NotNil(t, cmd.Flags().Lookup("example"), "--example flag should exist")
}

// initConfig mirrors the keys the generated project file carries.
type initConfig struct {
	Roster   string `yaml:"roster"`
	Licenses []struct {
		Jurisdiction string `yaml:"jurisdiction"`
		Path         string `yaml:"path"`
	} `yaml:"licenses"`
	NPI    string `yaml:"npi"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
}

func TestInitCreatesValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	require.NoError(t, err)

	content, err := os.ReadFile("rosterdq.yaml")
	require.NoError(t, err, "failed to read rosterdq.yaml")

	var cfg initConfig
	require.NoError(t, yaml.Unmarshal(content, &cfg), "generated config should be valid YAML")

	assert.Equal(t, "data/roster.csv", cfg.Roster)
	assert.Empty(t, cfg.Licenses, "minimal template ships no registries")
}

func TestInitExampleCreatesValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer func() { _ = os.Chdir(oldWd) }()

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--example"})

	err := cmd.Execute()
	require.NoError(t, err)

	content, err := os.ReadFile("rosterdq.yaml")
	require.NoError(t, err, "failed to read rosterdq.yaml")

	var cfg initConfig
	require.NoError(t, yaml.Unmarshal(content, &cfg), "generated config should be valid YAML")

	assert.Equal(t, "data/roster.csv", cfg.Roster)
	require.Len(t, cfg.Licenses, 2)
	assert.Equal(t, "CA", cfg.Licenses[0].Jurisdiction)
	assert.Equal(t, "data/ca_licenses.csv", cfg.Licenses[0].Path)
	assert.Equal(t, "data/npi_registry.csv", cfg.NPI)
	assert.Equal(t, 8733, cfg.Server.Port)
}
