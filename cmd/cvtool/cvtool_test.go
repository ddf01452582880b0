package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "values.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"name":"Ada","team":"Core"}`), 0o644))

	values, err := collectValues(file, []string{"team=Platform", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Ada", "team": "Platform", "note": "a=b"}, values)

	_, err = collectValues("", []string{"broken"})
	assert.Error(t, err)
	_, err = collectValues("", []string{"=value"})
	assert.Error(t, err)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 10))
	assert.Equal(t, "short", truncateText("short", -1))

	out := truncateText("简历文本内容", 2)
	assert.True(t, strings.HasPrefix(out, "简历\n"))
	assert.Contains(t, out, "总计 6 字符")
}

func TestExtractCommandReadsStdin(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader("Skills: Python, SQL. Master of Science."))
	rootCmd.SetArgs([]string{"extract"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	var got struct {
		Profile struct {
			Skills []string `json:"skills"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []string{"Python", "SQL"}, got.Profile.Skills)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "offer.json")
	require.NoError(t, os.WriteFile(tpl, []byte(`{
		"name": "Offer",
		"body": "Dear {name}, welcome.",
		"variables": [{"name": "name", "required": true}]
	}`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"render", "-t", tpl, "--set", "name=Ada"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "Dear Ada, welcome.\n", out.String())
}
