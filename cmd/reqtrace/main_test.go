package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trsRunFile = `
version: test-run
schema:
  documents:
    TRS:
      normalizer: generic
      required_columns: [TRS ID, Text]
      id_columns: [TRS ID]
      text_columns: [Text]
inputs:
  - path: trs.csv
    doc_name: Test Rig
    doc_type: TRS
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNormalizeCommand(t *testing.T) {
	dir := t.TempDir()
	runFile := writeFile(t, dir, "run.yaml", trsRunFile)
	writeFile(t, dir, "trs.csv", "TRS ID,Text\ntrs-1,Rig shall start\nTRS-2,Rig shall stop\n")
	outDir := filepath.Join(dir, "out")

	t.Setenv("REQTRACE_OUTPUT_SQLITE", "")

	out, err := execute(t, "normalize", "--config", runFile, "--output-dir", outDir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "schema test-run")
	assert.Contains(t, out, "2 records,")

	f, err := os.Open(filepath.Join(outDir, "requirements.csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Req_ID", rows[0][0])
	assert.Equal(t, "TRS-1", rows[1][0])
	assert.Equal(t, "TRS-2", rows[2][0])
	assert.Equal(t, "Test Rig", rows[1][2])
}

func TestNormalizeCommandReportsSkippedInputs(t *testing.T) {
	dir := t.TempDir()
	runFile := writeFile(t, dir, "run.yaml", trsRunFile)
	t.Setenv("REQTRACE_OUTPUT_SQLITE", "")

	out, err := execute(t, "normalize", "--config", runFile, "--output-dir", filepath.Join(dir, "out"), "--log-level", "error")
	require.ErrorIs(t, err, errRunFailed)
	assert.Contains(t, out, "SKIPPED")
	assert.Contains(t, out, "SRC001")
}

func TestNormalizeCommandRequiresRunFile(t *testing.T) {
	t.Setenv("REQTRACE_RUN_CONFIG", "")

	_, err := execute(t, "normalize", "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no run file")
}

func TestDocTypesCommand(t *testing.T) {
	out, err := execute(t, "doctypes", "--log-level", "error")
	require.NoError(t, err)

	for _, docType := range []string{"FCSS", "SRS", "SSG", "FSRD"} {
		assert.Contains(t, out, docType)
	}
	assert.Contains(t, out, "NORMALIZER")
}

func TestDocTypesCommandWithRunFile(t *testing.T) {
	runFile := writeFile(t, t.TempDir(), "run.yaml", trsRunFile)

	out, err := execute(t, "doctypes", "--config", runFile, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "schema test-run")
	assert.Contains(t, out, "TRS")
	assert.Contains(t, out, "TRS ID, Text")
}

func TestInvalidLogLevelFlag(t *testing.T) {
	_, err := execute(t, "doctypes", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQTRACE_LOG_LEVEL")
}

func TestLogLevelFlagOverridesInvalidEnvironment(t *testing.T) {
	t.Setenv("REQTRACE_LOG_LEVEL", "loud")

	out, err := execute(t, "doctypes", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "FCSS")
}
