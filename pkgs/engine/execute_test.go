package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRunsResolvedCommandsInOrder(t *testing.T) {
	runner := &fakeRunner{}
	source := `
	sort = { exec "sort a.bam" exec "index a.bam.sort" }
	call = { exec "caller a.bam.sort" }
	run { sort + call }`
	p := NewFromSource(source, WithRunner(runner))
	require.NoError(t, p.Check(""))

	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, []string{
		"sort a.bam",
		"index a.bam.sort",
		"caller a.bam.sort",
	}, runner.ran())
}

func TestExecuteBeforeCheckFails(t *testing.T) {
	p := NewFromSource(`a = { exec "echo" } run { a }`, WithRunner(&fakeRunner{}))
	assert.Error(t, p.Execute(context.Background()))
}

func TestSerialExecuteShortCircuits(t *testing.T) {
	runner := &fakeRunner{statuses: map[string]int{"fail now": 3}}
	source := `a = { exec "fail now" } b = { exec "never runs" } run { a + b }`
	p := NewFromSource(source, WithRunner(runner))
	require.NoError(t, p.Check(""))

	err := p.Execute(context.Background())
	var exit *ExitStatusError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, "a", exit.Stage)
	assert.Equal(t, 3, exit.Status)
	assert.Equal(t, []string{"fail now"}, runner.ran())
}

func TestParallelExecuteRunsSiblingOfFailedBranch(t *testing.T) {
	runner := &fakeRunner{statuses: map[string]int{"fail left": 1}}
	source := `a = { exec "fail left" } b = { exec "run right" } run { [a, b] }`
	p := NewFromSource(source, WithRunner(runner))
	require.NoError(t, p.Check(""))

	err := p.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel execution failed")
	assert.Contains(t, runner.ran(), "run right", "a failing branch must not skip its sibling")
}

func TestParallelExecuteCollectsBothFailures(t *testing.T) {
	runner := &fakeRunner{statuses: map[string]int{"fail left": 1, "fail right": 2}}
	source := `a = { exec "fail left" } b = { exec "fail right" } run { [a, b] }`
	p := NewFromSource(source, WithRunner(runner))
	require.NoError(t, p.Check(""))

	err := p.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stage a")
	assert.Contains(t, err.Error(), "stage b")
}

func TestExecuteBanners(t *testing.T) {
	var stderr bytes.Buffer
	p := NewFromSource(`a = { exec "echo" } run { a }`,
		WithRunner(&fakeRunner{}), WithStderr(&stderr))
	require.NoError(t, p.Check(""))
	require.NoError(t, p.Execute(context.Background()))

	out := stderr.String()
	assert.Contains(t, out, "=== Starting pipeline at ")
	assert.Contains(t, out, "=== Stage a ")
	assert.Contains(t, out, "=== Finished successfully at ")
	assert.False(t, p.StartTime().IsZero())
	assert.False(t, p.StopTime().IsZero())
	assert.False(t, p.StopTime().Before(p.StartTime()))
}

func TestExecuteFailureBanner(t *testing.T) {
	var stderr bytes.Buffer
	runner := &fakeRunner{statuses: map[string]int{"boom": 1}}
	p := NewFromSource(`a = { exec "boom" } run { a }`,
		WithRunner(runner), WithStderr(&stderr))
	require.NoError(t, p.Check(""))
	require.Error(t, p.Execute(context.Background()))

	out := stderr.String()
	assert.Contains(t, out, "Execution of stage failed (1).")
	assert.Contains(t, out, "=== Pipeline FAILED at ")
	assert.NotContains(t, out, "Finished successfully")
}

func TestPrintRendersCompositionTree(t *testing.T) {
	var buf bytes.Buffer
	p := NewFromSource(`a = { exec "echo" } b = { exec "echo" } run { [a, b] + a }`,
		WithRunner(&fakeRunner{}))
	require.NoError(t, p.Print(&buf))

	assert.Contains(t, buf.String(), "Serial(Parallel(a,b),a)")
}
