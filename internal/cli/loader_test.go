package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProblems_Valid(t *testing.T) {
	dir := writeProblemsDir(t, validProblemsCUE)

	result, errs := LoadProblems(dir, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 1, result.FileCount)
	require.Len(t, result.Problems, 2)

	names := []string{result.Problems[0].Name, result.Problems[1].Name}
	assert.ElementsMatch(t, []string{"sqrt2", "cosfix"}, names)
}

func TestLoadProblems_MissingDir(t *testing.T) {
	result, errs := LoadProblems(filepath.Join(t.TempDir(), "missing"), LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadProblems_NoFiles(t *testing.T) {
	result, errs := LoadProblems(t.TempDir(), LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestLoadProblems_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.cue")
	require.NoError(t, os.WriteFile(path, []byte("x: 1\n"), 0o644))

	result, errs := LoadProblems(path, LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadProblems_CollectAll(t *testing.T) {
	dir := writeProblemsDir(t, `
package test

problem: first: {
	function: "x^2 - 2"
	x0:       1.0
	eps:      1e-10
}

problem: second: {
	function: "x - 1"
	x0:       0.0
}
`)

	result, errs := LoadProblems(dir, LoadModeCollectAll)
	require.NotNil(t, result)
	assert.Len(t, errs, 2)
	assert.Empty(t, result.Problems)
}

func TestLoadProblems_FailFastStopsEarly(t *testing.T) {
	dir := writeProblemsDir(t, `
package test

problem: first: {
	function: "x^2 - 2"
	x0:       1.0
	eps:      1e-10
}

problem: second: {
	function: "x - 1"
	x0:       0.0
}
`)

	_, errs := LoadProblems(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestLoadProblems_NoProblemsStruct(t *testing.T) {
	dir := writeProblemsDir(t, "package test\n\nother: 1\n")

	result, errs := LoadProblems(dir, LoadModeFailFast)
	require.NotNil(t, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no problems found")
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte("x: 1"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.cue"), []byte("y: 2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("skip"), 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
