package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		tablePath = ""
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTableCommand_Default(t *testing.T) {
	out, warnings, err := execute(t, "table")
	require.NoError(t, err)

	assert.Contains(t, out, "video.ft.com")
	assert.Regexp(t, `www\.thesun\.co\.uk\s+sun\s+nat`, out)
	assert.Regexp(t, `www\.dailyrecord\.co\.uk\s+dailyrecord\s+scot`, out)
	assert.Contains(t, warnings, "www.dailyrecord.co.uk")
}

func TestTableCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte("blacklist: [x.example.com]\naugment:\n  y.example.com: {shortname: why, tag: blog}\n"), 0o644))

	out, warnings, err := execute(t, "table", "--table", path)
	require.NoError(t, err)
	assert.Contains(t, out, "x.example.com")
	assert.Regexp(t, `y\.example\.com\s+why\s+blog`, out)
	assert.NotContains(t, out, "thesun")
	assert.Empty(t, warnings)
}

func TestTableCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, "table", "--table", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
