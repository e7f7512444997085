package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTOML = `
[decode]
chunk_size = 1024
large_window = true
output_dir = "/out"

[fetch]
timeout = "5s"
user_agent = "brdecode-test"
`

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()

	t.Setenv("HOME", "/home/tester")
	t.Setenv("USERPROFILE", "")

	fs := afero.NewMemMapFs()
	for name, data := range map[string]string{
		"/in/a.txt.br":       "\x06",
		"/in/dir/b.br":       "\x06",
		"/etc/brdecode.toml": testTOML,
		"/etc/bad.toml":      "[decode\nchunk_size = ",
		"/etc/slow.toml":     "[fetch]\ntimeout = \"2h\"\n",
		"/etc/dict.bin":      "words",
		"/out.txt":           "not a directory",
	} {
		require.NoError(t, afero.WriteFile(fs, name, []byte(data), 0o644))
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "/home/tester/.brdecode/dictionary.bin", []byte("words"), 0o644))

	cfg, err := load(fs, []string{"/in/a.txt.br", "/in/dir"})
	require.NoError(t, err)

	assert.Equal(t, []string{"/in/a.txt.br", "/in/dir"}, cfg.CLI.Inputs)
	assert.Equal(t, DefaultChunkSize, cfg.CLI.ChunkSize)
	assert.Equal(t, "/home/tester/.brdecode/dictionary.bin", cfg.CLI.Dictionary)
	assert.Equal(t, DefaultFormat, cfg.CLI.Format)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
	assert.Equal(t, DefaultUserAgent, cfg.TOML.Fetch.UserAgent)
	assert.False(t, cfg.CLI.LargeWindow)
	assert.Empty(t, cfg.CLI.OutputDir)
}

func TestLoadTOML(t *testing.T) {
	fs := newTestFs(t)

	cfg, err := load(fs, []string{
		"-c", "/etc/brdecode.toml",
		"--chunk-size", "7",
		"--dictionary", "/etc/dict.bin",
		"--sum",
		"/in/a.txt.br",
	})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.CLI.ChunkSize)
	assert.Equal(t, 1024, cfg.TOML.Decode.ChunkSize)
	assert.True(t, cfg.CLI.LargeWindow)
	assert.True(t, cfg.CLI.Sum)
	assert.Equal(t, "/out", cfg.CLI.OutputDir)
	assert.Equal(t, "/etc/dict.bin", cfg.CLI.Dictionary)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout())
	assert.Equal(t, "brdecode-test", cfg.TOML.Fetch.UserAgent)
}

func TestLoadEnv(t *testing.T) {
	fs := newTestFs(t)
	t.Setenv("BRDECODE_CHUNK_SIZE", "99")
	t.Setenv("BRDECODE_LARGE_WINDOW", "true")

	cfg, err := load(fs, []string{"/in/a.txt.br"})
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.CLI.ChunkSize)
	assert.True(t, cfg.CLI.LargeWindow)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no inputs", nil, "at least one input"},
		{"missing input", []string{"/in/missing.br"}, "does not exist"},
		{"chunk size", []string{"--chunk-size=100000000", "/in/a.txt.br"}, "chunk size"},
		{"missing dictionary", []string{"-D", "/etc/none.bin", "/in/a.txt.br"}, "dictionary /etc/none.bin"},
		{"dictionary is a directory", []string{"-D", "/in/dir", "/in/a.txt.br"}, "is a directory"},
		{"output is a file", []string{"-o", "/out.txt", "/in/a.txt.br"}, "not a directory"},
		{"bad toml", []string{"-c", "/etc/bad.toml", "/in/a.txt.br"}, "error parsing TOML"},
		{"missing toml", []string{"-c", "/etc/none.toml", "/in/a.txt.br"}, "error reading config file"},
		{"timeout", []string{"-c", "/etc/slow.toml", "/in/a.txt.br"}, "fetch.timeout"},
		{"crawl without url", []string{"--crawl", "/in/a.txt.br"}, "--crawl"},
		{"unknown flag", []string{"--bogus", "/in/a.txt.br"}, "error parsing CLI args"},
		{"format", []string{"--format", "yaml", "/in/a.txt.br"}, "error parsing CLI args"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(newTestFs(t), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadURLInputs(t *testing.T) {
	cfg, err := load(newTestFs(t), []string{"--crawl", "https://example.com/streams/"})
	require.NoError(t, err)
	assert.True(t, cfg.CLI.Crawl)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.br"))
	assert.True(t, IsURL("http://example.com"))
	assert.False(t, IsURL("/tmp/http://x"))
	assert.False(t, IsURL("a.br"))
}
