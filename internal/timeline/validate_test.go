package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartpulse/order-tracker/internal/apperr"
)

func TestValidateTemplate(t *testing.T) {
	t.Parallel()

	t.Run("accepts well-formed template", func(t *testing.T) {
		t.Parallel()

		res := ValidateTemplate([]StepTemplate{
			{Name: "Order received", ScheduledFor: "30 minutes"},
			{Name: "Packed", ScheduledFor: "2 hours"},
			{Name: "Shipped", ScheduledFor: "1 day"},
		})
		assert.True(t, res.Valid)
		assert.NoError(t, res.Err)
	})

	t.Run("rejects empty template", func(t *testing.T) {
		t.Parallel()

		res := ValidateTemplate(nil)
		assert.False(t, res.Valid)
		assert.ErrorIs(t, res.Err, apperr.ErrValidationFailed)
	})

	t.Run("reports first failing step only", func(t *testing.T) {
		t.Parallel()

		// Step 1 has a blank name, step 2 a bad offset. Position 1 wins.
		res := ValidateTemplate([]StepTemplate{
			{Name: "   ", ScheduledFor: "30 minutes"},
			{Name: "B", ScheduledFor: "bad"},
		})
		require.False(t, res.Valid)
		assert.Equal(t, 1, res.FailingIndex)
		assert.ErrorIs(t, res.Err, apperr.ErrValidationFailed)
		assert.Contains(t, res.Err.Error(), "step 1")
	})

	t.Run("rejects bad offset with 1-based position", func(t *testing.T) {
		t.Parallel()

		res := ValidateTemplate([]StepTemplate{
			{Name: "A", ScheduledFor: "30 minutes"},
			{Name: "B", ScheduledFor: "soon"},
		})
		require.False(t, res.Valid)
		assert.Equal(t, 2, res.FailingIndex)
		assert.ErrorIs(t, res.Err, apperr.ErrInvalidDuration)
		assert.Contains(t, res.Err.Error(), "step 2")
	})

	t.Run("does not mutate the candidate", func(t *testing.T) {
		t.Parallel()

		steps := []StepTemplate{{Name: "A", ScheduledFor: "30 minutes"}}
		_ = ValidateTemplate(steps)
		assert.Equal(t, []StepTemplate{{Name: "A", ScheduledFor: "30 minutes"}}, steps)
	})
}
