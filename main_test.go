package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := runCLI(t, "plan",
		"--description", "Oxicorte sobre o mar",
		"--work-type", "TRABALHO A QUENTE",
		"--job", "0042",
		"--date", "14/10/2026")
	require.NoError(t, err)
	assert.Contains(t, out, "[PLAN] Job 0042 | Date: 14/10/2026 | Work type: TRABALHO A QUENTE")
	assert.Contains(t, out, itemTorchGoggles)
	assert.Contains(t, out, "over_water             = true")
}

func TestReconcileCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	data, err := json.Marshal(newTestSnapshot("Solda em altura"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := runCLI(t, "reconcile", "--snapshot", path, "--apply")
	require.NoError(t, err)
	assert.Contains(t, out, "[PLAN] Job 0007")
	assert.Contains(t, out, "epi/Vestimentas")
	assert.Contains(t, out, "applied=")
}

func TestReconcileCommandRequiresSnapshot(t *testing.T) {
	_, err := runCLI(t, "reconcile")
	assert.Error(t, err)
}

func TestRootRejectsBadLogFormat(t *testing.T) {
	_, err := runCLI(t, "--log-format", "xml", "plan", "--description", "solda")
	assert.Error(t, err)
}
