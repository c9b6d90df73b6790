package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/converge/internal/store"
)

func TestSolve_Converges(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Function:   f(x) = x^2 - 2")
	assert.Contains(t, out, "f'(x) = 2*x (derived automatically)")
	assert.Contains(t, out, "Root approximation:  1.414213562373095")
	assert.Contains(t, out, "Status:              converged")
	assert.Contains(t, out, "ITERATION HISTORY")
}

func TestSolve_ExplicitDerivative(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--dfx", "2*x")
	require.NoError(t, err)

	assert.Contains(t, out, "f'(x) = 2*x\n")
	assert.NotContains(t, out, "derived automatically")
}

func TestSolve_WhitespaceDerivativeAutoDerives(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--dfx", "  ")
	require.NoError(t, err)

	assert.Contains(t, out, "f'(x) = 2*x (derived automatically)")
	assert.Contains(t, out, "Root approximation:  1.414213562373095")
}

func TestSolve_JSON(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   SolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "x^2 - 2", resp.Data.Function)
	assert.Equal(t, "2*x", resp.Data.Derivative)
	assert.True(t, resp.Data.AutoDerived)
	assert.True(t, resp.Data.Converged)
	assert.Equal(t, "CONVERGED", resp.Data.Reason)
	assert.InDelta(t, 1.4142135623730951, resp.Data.Root, 1e-12)
	assert.Equal(t, resp.Data.Iterations, len(resp.Data.Trace))
}

func TestSolve_JSONTraceNullsOnFault(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x^2 + 1", "--x0", "1", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data SolveResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "SINGULAR_DERIVATIVE", resp.Data.Reason)
	last := resp.Data.Trace[len(resp.Data.Trace)-1]
	assert.Nil(t, last.Err)
	require.NotNil(t, last.FXn)
	assert.Equal(t, 1.0, *last.FXn)
}

func TestSolve_NotConvergedExitCode(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x^2 + 1", "--x0", "1.1")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Stop reason:         DIVERGING")
}

func TestSolve_NoDivergenceCheck(t *testing.T) {
	out, _, err := execute(t, "",
		"solve", "x^2 + 1", "--x0", "1.1", "--no-divergence-check", "--max-iter", "30")
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Stop reason:         MAX_ITERATIONS")
	assert.Contains(t, out, "Iterations used:     30")
}

func TestSolve_InvalidExpression(t *testing.T) {
	out, _, err := execute(t, "", "solve", "x +", "--x0", "1")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E102]")
}

func TestSolve_InvalidParameters(t *testing.T) {
	_, _, err := execute(t, "", "solve", "x", "--eps=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSolve_WritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.txt")
	_, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--report", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "NEWTON-RAPHSON METHOD - RESULTS")
	assert.Contains(t, string(data), "Root approximation:  1.414213562373095")
}

func TestSolve_RecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	out, _, err := execute(t, "", "solve", "x^2 - 2", "--x0", "1", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Run ID:")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "x^2 - 2", runs[0].Function)
	assert.Equal(t, "2*x", runs[0].Derivative)
	assert.True(t, runs[0].Result.Converged)
}

func TestSolve_Interactive(t *testing.T) {
	stdin := "x^2 - 2\n\n1\n\n\n"
	out, _, err := execute(t, stdin, "solve")
	require.NoError(t, err)

	assert.Contains(t, out, "f(x) = ")
	assert.Contains(t, out, "Initial guess x0")
	assert.Contains(t, out, "Root approximation:  1.414213562373095")
}

func TestSolve_InteractiveRetriesBadInput(t *testing.T) {
	stdin := "2x\nx^2 - 2\n\nabc\n1\n\n\n"
	out, _, err := execute(t, stdin, "solve")
	require.NoError(t, err)

	assert.Contains(t, out, "Invalid expression")
	assert.Contains(t, out, `Not a number: "abc"`)
	assert.Contains(t, out, "Status:              converged")
}

func TestSolve_InteractiveRejectsNonPositive(t *testing.T) {
	stdin := "x^2 - 2\n\n1\n-1\n1e-10\n0\n50\n"
	out, _, err := execute(t, stdin, "solve")
	require.NoError(t, err)

	assert.Contains(t, out, "Invalid value: must be greater than zero")
	assert.Contains(t, out, "Tolerance (eps):     1e-10")
	assert.Contains(t, out, "Iteration cap:       50")
}

func TestSolve_InteractiveEOF(t *testing.T) {
	_, _, err := execute(t, "", "solve")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSolve_ConfigDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("eps: 1e-4\nmax_iter: 25\n"), 0o644))

	out, _, err := execute(t, "",
		"solve", "x^2 - 2", "--x0", "1", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Tolerance (eps):     0.0001")
	assert.Contains(t, out, "Iteration cap:       25")
}

func TestSolve_FlagBeatsConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("eps: 1e-4\n"), 0o644))

	out, _, err := execute(t, "",
		"solve", "x^2 - 2", "--x0", "1", "--config", cfgPath, "--eps", "1e-12")
	require.NoError(t, err)

	assert.Contains(t, out, "Tolerance (eps):     1e-12")
}

func TestSolve_MissingExplicitConfig(t *testing.T) {
	_, _, err := execute(t, "",
		"solve", "x", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
