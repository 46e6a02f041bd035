package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stask/internal/models"
)

func TestLoadOrCreate_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.FileExists(t, path)

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_OverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
db_path = "/tmp/tasks.db"
default_filter = "active"
search_debounce = "50ms"

[sort]
key = "title"
direction = "asc"

[limits]
max_bulk = 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	s, err := cfg.Parse()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tasks.db", s.DBPath)
	assert.Equal(t, models.FilterActive, s.Filter)
	assert.Equal(t, 50*time.Millisecond, s.SearchDebounce)
	assert.Equal(t, models.TaskSort{Key: models.SortByTitle, Direction: models.Ascending}, s.Sort)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 1000, s.MaxSelection)
	assert.Equal(t, 500, s.MaxBulk, "non-positive limits fall back to the default")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"filter", `default_filter = "someday"`, "default_filter"},
		{"sort key", "[sort]\nkey = \"priority\"", "sort.key"},
		{"direction", "[sort]\ndirection = \"up\"", "sort.direction"},
		{"grouping", "[sort]\ngrouping = \"middle\"", "sort.grouping"},
		{"debounce", `search_debounce = "soon"`, "search_debounce"},
		{"negative debounce", `search_debounce = "-1s"`, "search_debounce"},
		{"log level", `log_level = "loud"`, "log_level"},
		{"syntax", `default_filter = `, "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_DefaultsAndZeroDebounce(t *testing.T) {
	s, err := Default().Parse()
	require.NoError(t, err)
	assert.Equal(t, models.FilterAll, s.Filter)
	assert.Equal(t, models.DefaultSort(), s.Sort)
	assert.Equal(t, 350*time.Millisecond, s.SearchDebounce)

	cfg := Default()
	cfg.SearchDebounce = "0s"
	s, err = cfg.Parse()
	require.NoError(t, err)
	assert.Zero(t, s.SearchDebounce)
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/stask.toml")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/etc/stask.toml", p)

	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	p, err = Path()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "stask", DefaultConfigFileName), p)
}
