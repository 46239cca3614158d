package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insights/analytics"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	path := writeFile(t, "reviews.csv", "branch,rating,review\nNorth,5,great staff\nSouth,1,slow service\nNorth,4,good\n")

	out, err := execute(t, "analyze", path, "--limit", "2", "--summary")
	require.NoError(t, err)

	var report struct {
		RowCount        int    `json:"rowCount"`
		SampledRowCount int    `json:"sampledRowCount"`
		Sampled         bool   `json:"sampled"`
		AISummary       string `json:"aiSummary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, 3, report.RowCount)
	assert.Equal(t, 2, report.SampledRowCount)
	assert.True(t, report.Sampled)
	assert.Contains(t, report.AISummary, "reviews.csv")
}

func TestAnalyzeCommandParseError(t *testing.T) {
	path := writeFile(t, "bad.csv", "a,b\n1,2,3\n")

	_, err := execute(t, "analyze", path)
	require.Error(t, err)
	assert.True(t, analytics.IsParseError(err))
}

func TestAnalyzeCommandNeedsFile(t *testing.T) {
	_, err := execute(t, "analyze")
	assert.Error(t, err)

	_, err = execute(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
