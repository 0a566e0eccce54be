package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// isolate points HOME and the working directory at empty temp dirs
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "")
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./...", cfg.Path)
	assert.Equal(t, DefaultCapacity, cfg.Capacity)
	assert.Equal(t, DefaultMaxFrameSize, cfg.MaxFrameSize)
	assert.Equal(t, "go", cfg.Go.Binary)
	assert.Equal(t, "debug", cfg.Logs.Level)
	assert.Empty(t, cfg.XFail)
	assert.Empty(t, cfg.Files)
}

func TestLoad_WorkDirOverridesHome(t *testing.T) {
	wd := isolate(t)
	home := os.Getenv("HOME")

	writeFile(t, filepath.Join(home, ".config", "gotui", FileName), `
path: ./internal/...
capacity: 8192
logs:
  level: info
`)
	writeFile(t, filepath.Join(wd, FileName), `
capacity: 2048
go:
  flags: ["-race", "-count=1"]
  timeout: 90s
xfail:
  - pattern: "::TestFlaky"
    strict: true
    reason: known race
logs:
  components:
    runner.pipe: trace
`)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./internal/...", cfg.Path)
	assert.Equal(t, 2048, cfg.Capacity)
	assert.Equal(t, "info", cfg.Logs.Level)
	assert.Equal(t, []string{"-race", "-count=1"}, cfg.Go.Flags)
	assert.Equal(t, 90*time.Second, cfg.Go.Timeout)
	assert.Equal(t, map[string]string{"runner.pipe": "trace"}, cfg.Logs.Components)
	require.Len(t, cfg.XFail, 1)
	assert.Equal(t, XFailRule{Pattern: "::TestFlaky", Strict: true, Reason: "known race"}, cfg.XFail[0])
	assert.Len(t, cfg.Files, 2)
}

func TestLoad_ComponentLevels(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want map[string]string
	}{
		{
			name: "dotted names",
			yaml: "logs:\n  components:\n    runner.pipe: trace\n    ui.dispatcher: warn\n",
			want: map[string]string{"runner.pipe": "trace", "ui.dispatcher": "warn"},
		},
		{
			name: "plain names",
			yaml: "logs:\n  components:\n    ui: info\n",
			want: map[string]string{"ui": "info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.yaml)

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Logs.Components)
			assert.Equal(t, "debug", cfg.Logs.Level)
			assert.Equal(t, "go", cfg.Go.Binary)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GOTUI_CAPACITY", "1024")
	t.Setenv("GOTUI_GO_BINARY", "/usr/local/go/bin/go")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Capacity)
	assert.Equal(t, "/usr/local/go/bin/go", cfg.Go.Binary)
}

func TestLoad_ExplicitMissing(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeConfig, domain.GetErrorCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantErr: true},
		{name: "frame below capacity", mutate: func(c *Config) { c.MaxFrameSize = 10 }, wantErr: true},
		{name: "no binary", mutate: func(c *Config) { c.Go.Binary = "" }, wantErr: true},
		{name: "bad pattern", mutate: func(c *Config) { c.XFail = []XFailRule{{Pattern: "("}} }, wantErr: true},
		{name: "empty pattern", mutate: func(c *Config) { c.XFail = []XFailRule{{}} }, wantErr: true},
		{name: "good pattern", mutate: func(c *Config) { c.XFail = []XFailRule{{Pattern: "Test.*Flaky"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Path = "./pkg/..."
	cfg.XFail = []XFailRule{{Pattern: "TestBroken", Reason: "upstream"}}
	require.NoError(t, Write(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./pkg/...", loaded.Path)
	assert.Equal(t, cfg.XFail, loaded.XFail)
}

func TestLogFile(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "gotui-ui.log", cfg.LogFile("gotui-ui.log"))

	cfg.Logs.Dir = "/var/log"
	assert.Equal(t, "/var/log/gotui-ui.log", cfg.LogFile("gotui-ui.log"))
}
