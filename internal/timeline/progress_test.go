package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T) []CompiledStep {
	t.Helper()
	steps, err := Compile([]StepTemplate{
		{Name: "A", ScheduledFor: "30 minutes"},
		{Name: "B", ScheduledFor: "1 hour"},
		{Name: "C", ScheduledFor: "1 hour"},
	}, anchor)
	require.NoError(t, err)
	return steps
}

func TestEvaluateBeforeFirstStep(t *testing.T) {
	t.Parallel()

	p := Evaluate(mustCompile(t), anchor)
	assert.Equal(t, 0, p.CurrentStepIndex)
	assert.Equal(t, 0, p.Percent)
	assert.False(t, p.Terminal)
	assert.True(t, p.Steps[0].Current)
	assert.False(t, p.Steps[0].Completed)
}

func TestEvaluateMidway(t *testing.T) {
	t.Parallel()

	// A@+30m done, B@+90m pending.
	p := Evaluate(mustCompile(t), anchor.Add(45*time.Minute))
	assert.Equal(t, 1, p.CurrentStepIndex)
	assert.Equal(t, 33, p.Percent)
	assert.False(t, p.Terminal)
	assert.True(t, p.Steps[0].Completed)
	assert.True(t, p.Steps[1].Current)
}

func TestEvaluateBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	// now == scheduledFor counts as completed.
	p := Evaluate(mustCompile(t), anchor.Add(30*time.Minute))
	assert.True(t, p.Steps[0].Completed)
	assert.Equal(t, 1, p.CurrentStepIndex)
}

func TestEvaluateTerminal(t *testing.T) {
	t.Parallel()

	p := Evaluate(mustCompile(t), anchor.Add(72*time.Hour))
	assert.Equal(t, 2, p.CurrentStepIndex)
	assert.Equal(t, 100, p.Percent)
	assert.True(t, p.Terminal)
	for _, s := range p.Steps {
		assert.True(t, s.Completed)
		assert.False(t, s.Current, "no step is current in the terminal state")
	}
}

func TestEvaluateExactlyOneCurrent(t *testing.T) {
	t.Parallel()

	steps := mustCompile(t)
	last := steps[len(steps)-1].ScheduledFor

	for _, now := range []time.Time{
		anchor,
		anchor.Add(31 * time.Minute),
		anchor.Add(91 * time.Minute),
		last.Add(-time.Second),
	} {
		p := Evaluate(steps, now)
		current := 0
		for _, s := range p.Steps {
			if s.Current {
				current++
			}
		}
		assert.Equal(t, 1, current, "exactly one current step at %v", now)
	}
}

func TestEvaluateMonotonic(t *testing.T) {
	t.Parallel()

	steps := mustCompile(t)
	prev := -1
	for now := anchor; now.Before(anchor.Add(4 * time.Hour)); now = now.Add(7 * time.Minute) {
		p := Evaluate(steps, now)
		require.GreaterOrEqual(t, p.Percent, prev, "progress must never regress")
		prev = p.Percent
	}
}

func TestEvaluateEmpty(t *testing.T) {
	t.Parallel()

	p := Evaluate(nil, anchor)
	assert.Equal(t, 0, p.Percent)
	assert.Equal(t, 0, p.CurrentStepIndex)
	assert.False(t, p.Terminal)
	assert.Empty(t, p.Steps)
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	steps := mustCompile(t)
	_ = Evaluate(steps, anchor.Add(2*time.Hour))
	for _, s := range steps {
		assert.False(t, s.Completed)
		assert.False(t, s.Current)
	}
}
