package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunHelp(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer

	code := run([]string{"--help"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Usage: curlent")
	assert.Empty(t, stderr.String())
}

func TestRunConfigurationErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no identifier", nil, "no input specified"},
		{"negative ratio", []string{"x.torrent", "-r", "-1"}, "invalid ratio"},
		{"unknown flag", []string{"x.torrent", "--frobnicate"}, "frobnicate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), "Error: ")
			assert.Contains(t, stderr.String(), tc.want)
			assert.Contains(t, stderr.String(), "Usage: curlent")
		})
	}
}

func TestRunInterfaceDownAtStartup(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	var stdout, stderr bytes.Buffer

	code := run([]string{"x.torrent", "-i", "curlenttest0", "-o", filepath.Join(home, "dl")}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Error: interface curlenttest0 is not up")
	_, err := os.Stat(filepath.Join(home, "dl"))
	assert.True(t, os.IsNotExist(err), "nothing is created before the interface check passes")
}
