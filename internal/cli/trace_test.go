package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/converge/internal/store"
)

func recordedRunID(t *testing.T, dbPath string) string {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	return runs[0].ID
}

func TestTrace_ShowsRecordedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--db", dbPath)
	require.NoError(t, err)

	id := recordedRunID(t, dbPath)

	out, _, err := execute(t, "", "trace", "--db", dbPath, "--run", id)
	require.NoError(t, err)

	assert.Contains(t, out, "Run ID:              "+id)
	assert.Contains(t, out, "Function:   f(x) = x^2 - 2")
	assert.Contains(t, out, "Root approximation:  1.414213562373095")
	assert.Contains(t, out, "ITERATION HISTORY")
}

func TestTrace_PreservesFaultCells(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, "", "solve", "x^2 + 1", "--x0", "1", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	id := recordedRunID(t, dbPath)

	out, _, err := execute(t, "", "trace", "--db", dbPath, "--run", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Stop reason:         SINGULAR_DERIVATIVE")
	assert.Contains(t, out, "NaN")
}

func TestTrace_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--db", dbPath)
	require.NoError(t, err)

	id := recordedRunID(t, dbPath)

	out, _, err := execute(t, "", "trace", "--db", dbPath, "--run", id, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data SolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, id, resp.Data.RunID)
	assert.Equal(t, "x^2 - 2", resp.Data.Function)
	assert.Len(t, resp.Data.Trace, resp.Data.Iterations)
}

func TestTrace_NotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	_, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--db", dbPath)
	require.NoError(t, err)

	_, _, err = execute(t, "", "trace", "--db", dbPath, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}
